package analyzer

import (
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
)

// AnalysisOptions describes one analysis call.
type AnalysisOptions struct {
	// ImageID labels the record; it defaults to the base name of FilePath.
	ImageID  string
	FilePath string

	// Metadata is what the decoder learned about the file. Nil means
	// unknown format and density.
	Metadata *metrics.Metadata

	// SkipSLA leaves the SLA block out even when the configuration enables
	// it.
	SkipSLA bool
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{}
}

// WithSource returns options labelled with an image id and path.
func (opts AnalysisOptions) WithSource(imageID, filePath string) AnalysisOptions {
	opts.ImageID = imageID
	opts.FilePath = filePath
	return opts
}

// WithMetadata returns options carrying decoder metadata.
func (opts AnalysisOptions) WithMetadata(md *metrics.Metadata) AnalysisOptions {
	opts.Metadata = md
	return opts
}

// WithoutSLA returns options that skip SLA evaluation.
func (opts AnalysisOptions) WithoutSLA() AnalysisOptions {
	opts.SkipSLA = true
	return opts
}
