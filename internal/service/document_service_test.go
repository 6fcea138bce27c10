package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anime-shed/doc-inspector-go/internal/analyzer"
	"github.com/anime-shed/doc-inspector-go/internal/config"
	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
	"github.com/anime-shed/doc-inspector-go/internal/observer"
	"github.com/anime-shed/doc-inspector-go/internal/repository"
	"github.com/anime-shed/doc-inspector-go/internal/storage"
)

// memRepository serves encoded images from memory. Locations must start
// with "mem://".
type memRepository struct {
	files map[string][]byte
}

func (r *memRepository) Load(ctx context.Context, location string) (*storage.Decoded, error) {
	if err := r.ValidateLocation(location); err != nil {
		return nil, err
	}
	data, ok := r.files[location]
	if !ok {
		return nil, apperrors.NewNotFoundError("image not found", nil)
	}
	return storage.Decode(data, storage.NameOf(location))
}

func (r *memRepository) ValidateLocation(location string) error {
	if !strings.HasPrefix(location, "mem://") {
		return apperrors.NewValidationError("unsupported location", repository.ErrInvalidLocation)
	}
	return nil
}

func documentPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{12, 12, 12, 255}
			if x >= w/10 && x < w-w/10 && y >= h/10 && y < h-h/10 {
				c = color.RGBA{235, 235, 235, 255}
				if y%14 < 2 && x > w/5 && x < w-w/5 {
					c = color.RGBA{25, 25, 25, 255}
				}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	svc   DocumentService
	stats *observer.StatsObserver
	store *repository.SQLiteStore
}

func newFixture(t *testing.T, withStore bool) *fixture {
	t.Helper()

	publisher := observer.NewEventPublisher()
	stats := observer.NewStatsObserver()
	publisher.Subscribe(stats)

	a, err := analyzer.NewAnalyzer(config.Default(), analyzer.WithWorkers(2), analyzer.WithPublisher(publisher))
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	repo := &memRepository{files: map[string][]byte{
		"mem://scans/page1.png": documentPNG(t, 400, 300),
		"mem://scans/page2.png": documentPNG(t, 320, 240),
		"mem://scans/bad.png":   []byte("not an image"),
	}}

	opts := []Option{WithPublisher(publisher), WithStats(stats), WithBatchConcurrency(2)}
	f := &fixture{stats: stats}
	if withStore {
		store, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "results.db"))
		if err != nil {
			t.Fatalf("OpenSQLite failed: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		f.store = store
		opts = append(opts, WithResultStore(store))
	}
	f.svc = NewDocumentService(repo, a, opts...)
	return f
}

func TestDocumentService_Analyze(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	rec, err := f.svc.Analyze(ctx, "mem://scans/page1.png", "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if rec.ImageID != "page1.png" || rec.FilePath != "mem://scans/page1.png" {
		t.Errorf("unexpected identity: %q %q", rec.ImageID, rec.FilePath)
	}
	if rec.ID == "" {
		t.Fatal("expected stored record to carry an id")
	}
	if rec.Metadata == nil || rec.Metadata.Format != "png" {
		t.Errorf("expected decoder metadata, got %+v", rec.Metadata)
	}

	stored, err := f.svc.Result(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if stored.Score != rec.Global.Score || stored.Status != string(rec.Global.Status) {
		t.Errorf("stored summary %+v does not match record", stored)
	}

	history, err := f.svc.History(ctx, "mem://scans/page1.png", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].ID != rec.ID {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestDocumentService_AnalyzeErrors(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	tests := []struct {
		name       string
		location   string
		profile    string
		wantStatus int
	}{
		{"invalid location", "/etc/passwd", "", http.StatusBadRequest},
		{"missing image", "mem://scans/none.png", "", http.StatusNotFound},
		{"undecodable", "mem://scans/bad.png", "", http.StatusBadRequest},
		{"unknown profile", "mem://scans/page1.png", "no_such_profile", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Analyze(ctx, tt.location, tt.profile)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperrors.GetStatusCode(err); got != tt.wantStatus {
				t.Errorf("status = %d, want %d (%v)", got, tt.wantStatus, err)
			}
		})
	}
}

func TestDocumentService_Profiles(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	base, err := f.svc.Analyze(ctx, "mem://scans/page1.png", "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	lenient, err := f.svc.Analyze(ctx, "mem://scans/page1.png", config.ProfileLenient)
	if err != nil {
		t.Fatalf("Analyze with profile failed: %v", err)
	}
	if lenient.Global.Score < base.Global.Score {
		t.Errorf("lenient score %v below default score %v", lenient.Global.Score, base.Global.Score)
	}

	svc := f.svc.(*documentService)
	first, err := svc.analyzerFor(config.ProfileLenient)
	if err != nil {
		t.Fatalf("analyzerFor failed: %v", err)
	}
	second, _ := svc.analyzerFor(config.ProfileLenient)
	if first != second {
		t.Error("expected profile analyzer to be reused")
	}

	if len(f.svc.Profiles()) != 3 {
		t.Errorf("expected 3 profiles, got %d", len(f.svc.Profiles()))
	}
}

func TestDocumentService_AnalyzeUpload(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	rec, err := f.svc.AnalyzeUpload(ctx, "upload.png", documentPNG(t, 300, 200), "")
	if err != nil {
		t.Fatalf("AnalyzeUpload failed: %v", err)
	}
	if rec.ImageID != "upload.png" || rec.Pixels.W != 300 {
		t.Errorf("unexpected record: %q %dx%d", rec.ImageID, rec.Pixels.W, rec.Pixels.H)
	}
	if rec.ID != "" {
		t.Error("record must not get an id without a store")
	}

	_, err = f.svc.AnalyzeUpload(ctx, "junk.png", []byte("junk"), "")
	if !apperrors.IsType(err, apperrors.ErrorTypeInput) {
		t.Errorf("expected input error, got %v", err)
	}
}

func TestDocumentService_AnalyzeBatch(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	locations := []string{
		"mem://scans/page1.png",
		"mem://scans/bad.png",
		"ftp://elsewhere/x.png",
		"mem://scans/page2.png",
	}
	res, err := f.svc.AnalyzeBatch(ctx, locations, "")
	if err != nil {
		t.Fatalf("AnalyzeBatch failed: %v", err)
	}
	if len(res.Items) != len(locations) {
		t.Fatalf("expected %d items, got %d", len(locations), len(res.Items))
	}
	for i, loc := range locations {
		if res.Items[i].FilePath() != loc {
			t.Errorf("item %d is %q, want %q", i, res.Items[i].FilePath(), loc)
		}
	}
	if res.Summary.Succeeded != 2 || res.Summary.Failed != 2 {
		t.Errorf("unexpected summary: %+v", res.Summary)
	}

	recent, err := f.svc.History(ctx, "", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("expected 2 stored results, got %d", len(recent))
	}

	if _, err := f.svc.AnalyzeBatch(ctx, nil, ""); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error for empty batch, got %v", err)
	}
	tooMany := make([]string, MaxBatchSize+1)
	if _, err := f.svc.AnalyzeBatch(ctx, tooMany, ""); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error for oversized batch, got %v", err)
	}
}

func TestDocumentService_HistoryDisabled(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Result(ctx, "any")
	if !apperrors.IsType(err, apperrors.ErrorTypeUnavailable) {
		t.Errorf("expected unavailable error, got %v", err)
	}
	if !errors.Is(err, repository.ErrRepositoryUnavailable) {
		t.Error("expected ErrRepositoryUnavailable in chain")
	}
	if _, err := f.svc.History(ctx, "", 5); apperrors.GetStatusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", err)
	}
}

func TestDocumentService_ResultNotFound(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.Result(context.Background(), "missing")
	if apperrors.GetStatusCode(err) != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
	if !errors.Is(err, repository.ErrResultNotFound) {
		t.Error("expected ErrResultNotFound in chain")
	}
}

func TestDocumentService_Stats(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	if _, err := f.svc.Analyze(ctx, "mem://scans/page1.png", ""); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, err := f.svc.AnalyzeBatch(ctx, []string{"mem://scans/page2.png"}, ""); err != nil {
		t.Fatalf("AnalyzeBatch failed: %v", err)
	}

	stats := f.svc.Stats()
	if stats.SuccessfulAnalyses != 2 {
		t.Errorf("SuccessfulAnalyses = %d, want 2", stats.SuccessfulAnalyses)
	}
	if stats.Batches != 1 {
		t.Errorf("Batches = %d, want 1", stats.Batches)
	}

	empty := NewDocumentService(&memRepository{}, nil).Stats()
	if empty.TotalAnalyses != 0 || empty.StatusCounts == nil {
		t.Errorf("unexpected stats without observer: %+v", empty)
	}
}
