package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/anime-shed/doc-inspector-go/internal/scoring"
	"github.com/anime-shed/doc-inspector-go/internal/storage"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
	"github.com/anime-shed/doc-inspector-go/pkg/validation"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "results.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(path string, score float64, at time.Time) *models.AnalysisRecord {
	return &models.AnalysisRecord{
		ImageID:  filepath.Base(path),
		FilePath: path,
		Pixels:   models.Pixels{W: 800, H: 600},
		Global: scoring.Global{
			Score:   score,
			Stars:   3,
			Status:  scoring.Warn,
			Actions: []scoring.ActionItem{},
		},
		AnalyzedAt: at,
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("/scans/a.png", 0.82, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	saved, err := store.Save(ctx, rec, "document_lenient")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == "" || rec.ID != saved.ID {
		t.Errorf("expected id to be assigned to record and row, got %q / %q", rec.ID, saved.ID)
	}

	got, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.FilePath != "/scans/a.png" || got.ImageID != "a.png" {
		t.Errorf("unexpected row: %+v", got)
	}
	if got.Score != 0.82 || got.Stars != 3 || got.Status != "warn" {
		t.Errorf("unexpected summary columns: %+v", got)
	}
	if got.Profile != "document_lenient" {
		t.Errorf("Profile = %q", got.Profile)
	}
	if !got.AnalyzedAt.Equal(rec.AnalyzedAt) {
		t.Errorf("AnalyzedAt = %v, want %v", got.AnalyzedAt, rec.AnalyzedAt)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(got.Record, &decoded); err != nil {
		t.Fatalf("stored record is not JSON: %v", err)
	}
	if decoded["id"] != saved.ID {
		t.Errorf("stored JSON id = %v", decoded["id"])
	}
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound, got %v", err)
	}
}

func TestSQLiteStore_HistoryAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, path := range []string{"/a.png", "/b.png", "/a.png", "/a.png"} {
		// sub-second offsets exercise the fixed-width timestamp ordering
		at := base.Add(time.Duration(i)*time.Second + time.Duration(i*10)*time.Millisecond)
		if _, err := store.Save(ctx, testRecord(path, float64(i)/10, at), ""); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	history, err := store.History(ctx, "/a.png", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history rows, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].AnalyzedAt.After(history[i-1].AnalyzedAt) {
			t.Error("history is not newest first")
		}
	}
	if history[0].Score != 0.3 {
		t.Errorf("newest score = %v, want 0.3", history[0].Score)
	}

	limited, err := store.History(ctx, "/a.png", 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit to apply, got %d rows", len(limited))
	}

	recent, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 4 {
		t.Errorf("expected 4 recent rows, got %d", len(recent))
	}

	empty, err := store.History(ctx, "/never.png", 5)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	saved, err := store.Save(context.Background(), testRecord("/x.png", 0.5, time.Now()), "")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	store.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), saved.ID); err != nil {
		t.Errorf("record lost after reopen: %v", err)
	}
}

func TestRemoteImageRepository(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	repo := NewRemoteImageRepository(storage.NewRouter(), validation.NewURLValidator())

	d, err := repo.Load(context.Background(), server.URL+"/doc.png")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d.Name != "doc.png" {
		t.Errorf("Name = %q", d.Name)
	}

	for _, bad := range []string{"", "/etc/passwd", "file:///etc/passwd", "ftp://host/a.png"} {
		if _, err := repo.Load(context.Background(), bad); !errors.Is(err, ErrInvalidLocation) {
			t.Errorf("Load(%q): expected ErrInvalidLocation, got %v", bad, err)
		}
	}
}
