package factory

import (
	"fmt"

	"github.com/anime-shed/doc-inspector-go/internal/analyzer"
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/observer"
	"github.com/anime-shed/doc-inspector-go/internal/storage"
	"github.com/anime-shed/doc-inspector-go/pkg/validation"
)

// SourceType represents the different image sources
type SourceType string

const (
	// FileSource reads local paths and file:// locations
	FileSource SourceType = "file"
	// HTTPSource fetches http(s) URLs
	HTTPSource SourceType = "http"
	// AzureSource reads azblob://container/blob locations
	AzureSource SourceType = "azure"
)

// ComponentFactory builds the storage and analysis components from process
// settings. The API container and the CLI share it.
type ComponentFactory struct {
	cfg       *config.ServerConfig
	publisher observer.Subject
	workers   int
}

// FactoryOption configures a ComponentFactory.
type FactoryOption func(*ComponentFactory)

// WithPublisher sends events of the analyzers it creates to p.
func WithPublisher(p observer.Subject) FactoryOption {
	return func(f *ComponentFactory) { f.publisher = p }
}

// WithWorkers sizes the worker pool of created analyzers; 0 uses the CPU
// count.
func WithWorkers(n int) FactoryOption {
	return func(f *ComponentFactory) { f.workers = n }
}

// NewComponentFactory creates a factory for cfg.
func NewComponentFactory(cfg *config.ServerConfig, opts ...FactoryOption) *ComponentFactory {
	f := &ComponentFactory{cfg: cfg, publisher: observer.Nop{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateSource creates a single image source.
func (f *ComponentFactory) CreateSource(sourceType SourceType) (storage.Source, error) {
	switch sourceType {
	case FileSource:
		return storage.NewFileSource(storage.DefaultMaxImageBytes), nil
	case HTTPSource:
		return storage.NewHTTPSource(
			storage.WithTimeout(f.cfg.ImageFetchTimeout),
			storage.WithMaxBytes(storage.DefaultMaxImageBytes),
		), nil
	case AzureSource:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure source requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		src, err := storage.NewAzureSource(f.cfg.AzureAccount, f.cfg.AzureKey)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}

// CreateRouter creates a router with the HTTP source and, when credentials
// are configured, the Azure source.
func (f *ComponentFactory) CreateRouter() (*storage.Router, error) {
	httpSource, err := f.CreateSource(HTTPSource)
	if err != nil {
		return nil, err
	}
	opts := []storage.RouterOption{
		storage.WithHTTPSource(httpSource),
		storage.WithMaxPixels(f.cfg.MaxImagePixels),
	}

	if f.cfg.AzureEnabled() {
		azureSource, err := f.CreateSource(AzureSource)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure source: %w", err)
		}
		opts = append(opts, storage.WithAzureSource(azureSource))
	}
	return storage.NewRouter(opts...), nil
}

// CreateValidator creates the URL validator for remote callers. azblob://
// is accepted only when the Azure source is available.
func (f *ComponentFactory) CreateValidator() *validation.URLValidator {
	v := validation.NewURLValidator()
	if f.cfg.AzureEnabled() {
		v = v.WithScheme(validation.SchemeAzureBlob)
	}
	return v
}

// CreateAnalyzer creates an analyzer for the quality configuration q.
func (f *ComponentFactory) CreateAnalyzer(q *config.Config) (analyzer.DocumentAnalyzer, error) {
	return analyzer.NewAnalyzer(q,
		analyzer.WithWorkers(f.workers),
		analyzer.WithPublisher(f.publisher),
	)
}
