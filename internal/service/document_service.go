package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/doc-inspector-go/internal/analyzer"
	"github.com/anime-shed/doc-inspector-go/internal/batch"
	"github.com/anime-shed/doc-inspector-go/internal/config"
	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
	"github.com/anime-shed/doc-inspector-go/internal/logger"
	"github.com/anime-shed/doc-inspector-go/internal/observer"
	"github.com/anime-shed/doc-inspector-go/internal/repository"
	"github.com/anime-shed/doc-inspector-go/internal/storage"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

// MaxBatchSize bounds the number of locations in one batch request.
const MaxBatchSize = 100

// DocumentService is the use-case layer shared by the HTTP API: it loads
// images, runs the analyzer, and keeps result history when a store is
// configured.
type DocumentService interface {
	// Analyze loads the image at location and analyses it with the named
	// profile, or the service default when profile is empty.
	Analyze(ctx context.Context, location, profile string) (*models.AnalysisRecord, error)

	// AnalyzeUpload analyses image bytes received directly from the caller.
	AnalyzeUpload(ctx context.Context, name string, data []byte, profile string) (*models.AnalysisRecord, error)

	// AnalyzeBatch analyses every location; per-image failures become
	// error entries in the result.
	AnalyzeBatch(ctx context.Context, locations []string, profile string) (*batch.Result, error)

	// Result returns a stored analysis by id.
	Result(ctx context.Context, id string) (*models.StoredAnalysis, error)

	// History lists stored analyses for filePath, or the most recent ones
	// across all files when filePath is empty.
	History(ctx context.Context, filePath string, limit int) ([]*models.StoredAnalysis, error)

	Profiles() []config.ProfileInfo
	Stats() observer.Stats
	ValidateLocation(location string) error
}

type documentService struct {
	images    repository.ImageRepository
	analyzer  analyzer.DocumentAnalyzer
	store     repository.ResultStore
	publisher observer.Subject
	stats     *observer.StatsObserver

	defaultProfile   string
	batchConcurrency int
	maxPixels        int64
	analysisTimeout  time.Duration

	mu        sync.Mutex
	byProfile map[string]analyzer.DocumentAnalyzer
}

// Option configures the service.
type Option func(*documentService)

// WithResultStore enables result history.
func WithResultStore(store repository.ResultStore) Option {
	return func(s *documentService) { s.store = store }
}

// WithPublisher sets where fetch events are sent.
func WithPublisher(p observer.Subject) Option {
	return func(s *documentService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithStats exposes the counters of stats through Stats.
func WithStats(stats *observer.StatsObserver) Option {
	return func(s *documentService) { s.stats = stats }
}

// WithDefaultProfile names the profile the base analyzer was built from, so
// requests naming it reuse that analyzer.
func WithDefaultProfile(name string) Option {
	return func(s *documentService) { s.defaultProfile = name }
}

// WithBatchConcurrency sets how many batch images are analysed at once.
func WithBatchConcurrency(n int) Option {
	return func(s *documentService) { s.batchConcurrency = n }
}

// WithMaxPixels downscales uploads larger than n pixels; 0 disables.
func WithMaxPixels(n int64) Option {
	return func(s *documentService) { s.maxPixels = n }
}

// WithAnalysisTimeout bounds loading and analysing a single image.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *documentService) { s.analysisTimeout = d }
}

// NewDocumentService creates the service around a base analyzer.
func NewDocumentService(images repository.ImageRepository, a analyzer.DocumentAnalyzer, opts ...Option) DocumentService {
	s := &documentService{
		images:    images,
		analyzer:  a,
		publisher: observer.Nop{},
		byProfile: make(map[string]analyzer.DocumentAnalyzer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) Analyze(ctx context.Context, location, profile string) (*models.AnalysisRecord, error) {
	a, err := s.analyzerFor(profile)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	decoded, err := s.load(ctx, location)
	if err != nil {
		return nil, err
	}

	opts := analyzer.DefaultOptions().
		WithSource(decoded.Name, location).
		WithMetadata(decoded.Metadata)

	rec, err := a.Analyze(ctx, decoded.Image, opts)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, rec, profile)
	return rec, nil
}

func (s *documentService) AnalyzeUpload(ctx context.Context, name string, data []byte, profile string) (*models.AnalysisRecord, error) {
	a, err := s.analyzerFor(profile)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	decoded, err := storage.Decode(data, name)
	if err != nil {
		return nil, err
	}
	decoded.Downscale(s.maxPixels)

	opts := analyzer.DefaultOptions().
		WithSource(decoded.Name, name).
		WithMetadata(decoded.Metadata)

	rec, err := a.Analyze(ctx, decoded.Image, opts)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, rec, profile)
	return rec, nil
}

func (s *documentService) AnalyzeBatch(ctx context.Context, locations []string, profile string) (*batch.Result, error) {
	if len(locations) == 0 {
		return nil, apperrors.NewValidationError("batch must contain at least one location", nil)
	}
	if len(locations) > MaxBatchSize {
		return nil, apperrors.NewValidationError("batch exceeds the maximum size", nil).
			WithDetails("at most 100 locations per request")
	}

	a, err := s.analyzerFor(profile)
	if err != nil {
		return nil, err
	}

	proc := batch.NewProcessor(a, s.images,
		batch.WithConcurrency(s.batchConcurrency),
		batch.WithPublisher(s.publisher),
		batch.WithItemCallback(func(_ int, item batch.Item) {
			if item.OK() {
				s.persist(ctx, item.Record, profile)
			}
		}),
	)

	res, err := proc.Process(ctx, locations)
	if err != nil {
		return res, apperrors.NewTimeoutError("batch did not complete", err)
	}
	return res, nil
}

func (s *documentService) Result(ctx context.Context, id string) (*models.StoredAnalysis, error) {
	if s.store == nil {
		return nil, historyDisabled()
	}
	stored, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrResultNotFound) {
		return nil, apperrors.NewNotFoundError("analysis result not found", err)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read analysis result", err)
	}
	return stored, nil
}

func (s *documentService) History(ctx context.Context, filePath string, limit int) ([]*models.StoredAnalysis, error) {
	if s.store == nil {
		return nil, historyDisabled()
	}

	var (
		rows []*models.StoredAnalysis
		err  error
	)
	if filePath == "" {
		rows, err = s.store.Recent(ctx, limit)
	} else {
		rows, err = s.store.History(ctx, filePath, limit)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read analysis history", err)
	}
	return rows, nil
}

func (s *documentService) Profiles() []config.ProfileInfo {
	return config.Profiles()
}

func (s *documentService) Stats() observer.Stats {
	if s.stats == nil {
		return observer.Stats{StatusCounts: map[string]int{}}
	}
	return s.stats.Snapshot()
}

func (s *documentService) ValidateLocation(location string) error {
	return s.images.ValidateLocation(location)
}

// analyzerFor returns the analyzer for a profile. Derived analyzers share
// the base analyzer's worker pool and are built once per profile.
func (s *documentService) analyzerFor(profile string) (analyzer.DocumentAnalyzer, error) {
	if profile == "" || profile == s.defaultProfile {
		return s.analyzer, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.byProfile[profile]; ok {
		return a, nil
	}
	cfg, err := config.Profile(profile)
	if err != nil {
		return nil, err
	}
	a, err := s.analyzer.WithConfig(cfg)
	if err != nil {
		return nil, err
	}
	s.byProfile[profile] = a
	return a, nil
}

func (s *documentService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.analysisTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.analysisTimeout)
}

func (s *documentService) load(ctx context.Context, location string) (*storage.Decoded, error) {
	start := time.Now()
	decoded, err := s.images.Load(ctx, location)
	if err != nil {
		s.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
			EventType:      observer.ImageFetchFailed,
			Location:       location,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	s.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		ImageID:        decoded.Name,
		Location:       location,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"width":  decoded.Image.Bounds().Dx(),
			"height": decoded.Image.Bounds().Dy(),
			"scale":  decoded.Scale,
		},
	})
	return decoded, nil
}

// persist stores rec when history is enabled. A storage failure is logged
// and leaves the record without an id; the analysis itself still succeeds.
func (s *documentService) persist(ctx context.Context, rec *models.AnalysisRecord, profile string) {
	if s.store == nil {
		return
	}
	if profile == "" {
		profile = s.defaultProfile
	}
	if _, err := s.store.Save(ctx, rec, profile); err != nil {
		rec.ID = ""
		logger.WithError(err).WithFields(logrus.Fields{
			"image_id":  rec.ImageID,
			"file_path": rec.FilePath,
		}).Warn("failed to store analysis result")
	}
}

func historyDisabled() error {
	return apperrors.NewUnavailableError("result history is not configured", repository.ErrRepositoryUnavailable)
}
