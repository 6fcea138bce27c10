package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

const defaultListLimit = 50

// timeLayout has fixed width so analyzed_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ ResultStore = (*SQLiteStore)(nil)

// SQLiteStore keeps analysis records in a single SQLite file. Each row
// carries the searchable summary columns plus the full record as JSON.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens or creates the store at dbPath, creating parent
// directories as needed.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db, dbPath: dbPath}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		image_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		score REAL NOT NULL,
		stars INTEGER NOT NULL,
		status TEXT NOT NULL,
		profile TEXT,
		analyzed_at TEXT NOT NULL,
		record_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_file ON analyses(file_path);
	CREATE INDEX IF NOT EXISTS idx_analyses_time ON analyses(analyzed_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, rec *models.AnalysisRecord, profile string) (*models.StoredAnalysis, error) {
	if rec == nil {
		return nil, errors.New("cannot save a nil record")
	}

	rec.ID = uuid.NewString()
	if rec.AnalyzedAt.IsZero() {
		rec.AnalyzedAt = time.Now().UTC()
	}

	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record: %w", err)
	}

	stored := &models.StoredAnalysis{
		ID:         rec.ID,
		ImageID:    rec.ImageID,
		FilePath:   rec.FilePath,
		Score:      rec.Global.Score,
		Stars:      rec.Global.Stars,
		Status:     string(rec.Global.Status),
		Profile:    profile,
		AnalyzedAt: rec.AnalyzedAt.UTC(),
		Record:     recordJSON,
	}

	query := `
	INSERT INTO analyses (id, image_id, file_path, score, stars, status, profile, analyzed_at, record_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		stored.ID,
		stored.ImageID,
		stored.FilePath,
		stored.Score,
		stored.Stars,
		stored.Status,
		stored.Profile,
		stored.AnalyzedAt.Format(timeLayout),
		string(recordJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	return stored, nil
}

const selectColumns = `SELECT id, image_id, file_path, score, stars, status, profile, analyzed_at, record_json FROM analyses`

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.StoredAnalysis, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	stored, err := scanStored(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return stored, nil
}

func (s *SQLiteStore) History(ctx context.Context, filePath string, limit int) ([]*models.StoredAnalysis, error) {
	return s.list(ctx, selectColumns+` WHERE file_path = ? ORDER BY analyzed_at DESC, rowid DESC LIMIT ?`,
		filePath, normalizeLimit(limit))
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*models.StoredAnalysis, error) {
	return s.list(ctx, selectColumns+` ORDER BY analyzed_at DESC, rowid DESC LIMIT ?`, normalizeLimit(limit))
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...interface{}) ([]*models.StoredAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	out := make([]*models.StoredAnalysis, 0)
	for rows.Next() {
		stored, err := scanStored(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStored(row scanner) (*models.StoredAnalysis, error) {
	var (
		stored     models.StoredAnalysis
		profile    sql.NullString
		analyzedAt string
		recordJSON string
	)
	if err := row.Scan(
		&stored.ID,
		&stored.ImageID,
		&stored.FilePath,
		&stored.Score,
		&stored.Stars,
		&stored.Status,
		&profile,
		&analyzedAt,
		&recordJSON,
	); err != nil {
		return nil, err
	}

	t, err := time.Parse(timeLayout, analyzedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid analyzed_at %q: %w", analyzedAt, err)
	}
	stored.AnalyzedAt = t
	stored.Profile = profile.String
	stored.Record = []byte(recordJSON)
	return &stored, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
