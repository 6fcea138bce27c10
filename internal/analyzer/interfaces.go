package analyzer

import (
	"context"
	"image"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
)

// DocumentAnalyzer runs the full quality pipeline on one image.
type DocumentAnalyzer interface {
	// Analyze segments img, runs every registered metric computer, scores
	// the records and, when enabled, evaluates the SLA.
	Analyze(ctx context.Context, img image.Image, options AnalysisOptions) (*AnalysisRecord, error)

	// ComputeMetrics runs only segmentation and the metric computers.
	ComputeMetrics(frame *imaging.Frame, md *metrics.Metadata) (map[metrics.Category]metrics.Record, map[metrics.Category]error)

	// WithConfig validates cfg and returns an analyzer using it that shares
	// this analyzer's worker pool and collaborators. The receiver is
	// unchanged.
	WithConfig(cfg *config.Config) (DocumentAnalyzer, error)

	// Config returns the configuration in use. Callers must not modify it.
	Config() *config.Config

	// Lifecycle management
	Close() error
}
