package analyzer

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
	"github.com/anime-shed/doc-inspector-go/internal/logger"
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
	"github.com/anime-shed/doc-inspector-go/internal/observer"
	"github.com/anime-shed/doc-inspector-go/internal/scoring"
	"github.com/anime-shed/doc-inspector-go/internal/segment"
	"github.com/anime-shed/doc-inspector-go/internal/sla"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

// coreAnalyzer implements DocumentAnalyzer and orchestrates segmentation,
// metric computation, scoring and SLA evaluation.
type coreAnalyzer struct {
	cfg       *config.Config
	registry  *metrics.Registry
	rules     *scoring.RuleSet
	engine    *scoring.Engine
	sla       *sla.Evaluator
	segmenter segment.Segmenter

	workerPool *WorkerPool
	ownsPool   bool
	publisher  observer.Subject
}

// Option customises an analyzer built by NewAnalyzer.
type Option func(*coreAnalyzer)

// WithRegistry replaces the built-in metric computers.
func WithRegistry(r *metrics.Registry) Option {
	return func(ca *coreAnalyzer) { ca.registry = r }
}

// WithRules replaces the built-in category rules.
func WithRules(rules *scoring.RuleSet) Option {
	return func(ca *coreAnalyzer) { ca.rules = rules }
}

// WithWorkers sizes the analyzer's own worker pool.
func WithWorkers(n int) Option {
	return func(ca *coreAnalyzer) {
		ca.workerPool = NewWorkerPool(n)
		ca.ownsPool = true
	}
}

// WithWorkerPool shares an existing, started pool. The analyzer does not
// close it.
func WithWorkerPool(pool *WorkerPool) Option {
	return func(ca *coreAnalyzer) {
		ca.workerPool = pool
		ca.ownsPool = false
	}
}

// WithPublisher sends analysis events to p.
func WithPublisher(p observer.Subject) Option {
	return func(ca *coreAnalyzer) { ca.publisher = p }
}

// NewAnalyzer creates an analyzer for cfg. A nil cfg means config.Default().
// An invalid configuration is rejected with a config error.
func NewAnalyzer(cfg *config.Config, opts ...Option) (DocumentAnalyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ca := &coreAnalyzer{
		cfg:       cfg,
		registry:  metrics.DefaultRegistry(),
		rules:     scoring.DefaultRules(),
		publisher: observer.Nop{},
	}
	for _, opt := range opts {
		opt(ca)
	}
	if ca.workerPool == nil {
		ca.workerPool = NewWorkerPool(0) // Use default CPU count
		ca.ownsPool = true
	}
	if ca.ownsPool {
		ca.workerPool.Start()
	}
	ca.build()

	return ca, nil
}

// build derives the config-dependent collaborators.
func (ca *coreAnalyzer) build() {
	ca.engine = scoring.NewEngine(ca.cfg, scoring.WithRules(ca.rules))
	ca.sla = sla.NewEvaluator(ca.cfg)
	ca.segmenter = segment.New(ca.cfg.Segmentation)
}

// Analyze runs the full pipeline. Only an empty or missing image is an
// error; failing metric computers are reported per category.
func (ca *coreAnalyzer) Analyze(ctx context.Context, img image.Image, options AnalysisOptions) (*AnalysisRecord, error) {
	start := time.Now()

	imageID := options.ImageID
	if imageID == "" && options.FilePath != "" {
		imageID = filepath.Base(options.FilePath)
	}
	log := logger.WithFields(logrus.Fields{"image_id": imageID, "file_path": options.FilePath})

	ca.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		ImageID:   imageID,
		Location:  options.FilePath,
	})

	if img == nil || img.Bounds().Empty() {
		err := apperrors.NewInputError("image is empty", nil)
		ca.publishFailure(ctx, imageID, options.FilePath, start, err)
		return nil, err
	}

	frame := imaging.NewFrame(img)
	records, failures := ca.ComputeMetrics(frame, options.Metadata)
	for cat, err := range failures {
		log.WithError(err).WithField("category", cat).Error("metric computation failed")
		ca.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
			EventType:    observer.MetricFailed,
			ImageID:      imageID,
			Location:     options.FilePath,
			ErrorMessage: err.Error(),
			Metadata:     map[string]interface{}{"category": string(cat)},
		})
	}

	result := ca.engine.Score(records)

	rec := &AnalysisRecord{
		ImageID:        imageID,
		FilePath:       options.FilePath,
		Pixels:         models.Pixels{W: frame.Width, H: frame.Height},
		Metadata:       options.Metadata,
		Metrics:        records,
		CategoryStatus: result.Statuses(),
		CategoryErrors: categoryErrors(failures, result.Errors()),
		Global:         result.Global,
		AnalyzedAt:     start.UTC(),
	}
	if res, ok := records[metrics.Resolution].(*metrics.ResolutionRecord); ok && res != nil {
		rec.DPI = models.DPI{X: res.EffectiveDPIX, Y: res.EffectiveDPIY}
	}

	if !options.SkipSLA && ca.sla.Enabled() {
		rec.SLA = ca.sla.Evaluate(records, rec.CategoryStatus, result.Global.Score)
	}

	elapsed := time.Since(start)
	rec.ProcessingTimeSec = elapsed.Seconds()

	log.WithFields(logrus.Fields{
		"status":   rec.Global.Status,
		"stars":    rec.Global.Stars,
		"score":    rec.Global.Score,
		"duration": elapsed.String(),
	}).Debug("analysis finished")

	ca.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		ImageID:        imageID,
		Location:       options.FilePath,
		ProcessingTime: elapsed,
		Success:        true,
		Metadata: map[string]interface{}{
			"status": string(rec.Global.Status),
			"stars":  rec.Global.Stars,
			"score":  rec.Global.Score,
		},
	})

	return rec, nil
}

func (ca *coreAnalyzer) publishFailure(ctx context.Context, imageID, location string, start time.Time, err error) {
	ca.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		ImageID:        imageID,
		Location:       location,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}

// ComputeMetrics segments frame and runs every registered computer on the
// worker pool. A failed category maps to a nil record and its error.
func (ca *coreAnalyzer) ComputeMetrics(frame *imaging.Frame, md *metrics.Metadata) (map[metrics.Category]metrics.Record, map[metrics.Category]error) {
	in := &metrics.Input{
		Frame:    frame,
		Mask:     ca.segmenter.Segment(frame),
		Metadata: md,
	}

	computers := ca.registry.Computers()
	recs := make([]metrics.Record, len(computers))
	errs := make([]error, len(computers))
	jobs := make([]func(), len(computers))
	for i, c := range computers {
		i, c := i, c
		jobs[i] = func() {
			recs[i], errs[i] = compute(c, in, ca.cfg)
		}
	}
	ca.workerPool.Run(jobs)

	records := make(map[metrics.Category]metrics.Record, len(computers))
	var failures map[metrics.Category]error
	for i, c := range computers {
		if errs[i] != nil {
			if failures == nil {
				failures = make(map[metrics.Category]error)
			}
			failures[c.Category()] = errs[i]
			records[c.Category()] = nil
			continue
		}
		records[c.Category()] = recs[i]
	}
	return records, failures
}

// compute runs one computer, turning errors and panics into a metric
// computation error.
func compute(c metrics.Computer, in *metrics.Input, cfg *config.Config) (rec metrics.Record, err error) {
	cat := c.Category()
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = apperrors.NewMetricComputationError(
				fmt.Sprintf("%s computation failed", cat), fmt.Errorf("panic: %v", r))
		}
	}()

	rec, err = c.Compute(in, cfg)
	if err == nil && metrics.Missing(rec) {
		err = fmt.Errorf("no record produced")
	}
	if err != nil {
		return nil, apperrors.NewMetricComputationError(fmt.Sprintf("%s computation failed", cat), err)
	}
	return rec, nil
}

// categoryErrors merges computation failures with scoring errors. The
// computation error is the more useful message when both exist.
func categoryErrors(failures map[metrics.Category]error, scored map[metrics.Category]string) map[metrics.Category]string {
	if len(failures) == 0 && len(scored) == 0 {
		return nil
	}
	out := make(map[metrics.Category]string, len(scored))
	for cat, msg := range scored {
		out[cat] = msg
	}
	for cat, err := range failures {
		out[cat] = err.Error()
	}
	return out
}

func (ca *coreAnalyzer) WithConfig(cfg *config.Config) (DocumentAnalyzer, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigError("configuration is nil", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	derived := &coreAnalyzer{
		cfg:        cfg,
		registry:   ca.registry,
		rules:      ca.rules,
		workerPool: ca.workerPool,
		ownsPool:   false,
		publisher:  ca.publisher,
	}
	derived.build()
	return derived, nil
}

func (ca *coreAnalyzer) Config() *config.Config {
	return ca.cfg
}

// Close releases the worker pool when the analyzer created it.
func (ca *coreAnalyzer) Close() error {
	if ca.ownsPool {
		ca.workerPool.Close()
	}
	return nil
}
