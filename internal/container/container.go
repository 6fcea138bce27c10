package container

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/doc-inspector-go/internal/analyzer"
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/factory"
	"github.com/anime-shed/doc-inspector-go/internal/logger"
	"github.com/anime-shed/doc-inspector-go/internal/observer"
	"github.com/anime-shed/doc-inspector-go/internal/repository"
	"github.com/anime-shed/doc-inspector-go/internal/service"
	"github.com/anime-shed/doc-inspector-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config           *config.ServerConfig
	quality          *config.Config
	publisher        observer.Subject
	stats            *observer.StatsObserver
	documentAnalyzer analyzer.DocumentAnalyzer
	imageRepository  repository.ImageRepository
	resultStore      *repository.SQLiteStore
	documentService  service.DocumentService
	handler          http.Handler
}

// NewContainer builds the dependency graph for the HTTP API.
func NewContainer(cfg *config.ServerConfig) (*Container, error) {
	quality, err := config.Resolve(cfg.QualityConfigPath, cfg.QualityProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to load quality config: %w", err)
	}

	publisher := observer.NewEventPublisher()
	stats := observer.NewStatsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(stats)

	components := factory.NewComponentFactory(cfg, factory.WithPublisher(publisher))

	router, err := components.CreateRouter()
	if err != nil {
		return nil, err
	}
	documentAnalyzer, err := components.CreateAnalyzer(quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}
	imageRepository := repository.NewRemoteImageRepository(router, components.CreateValidator())

	c := &Container{
		config:           cfg,
		quality:          quality,
		publisher:        publisher,
		stats:            stats,
		documentAnalyzer: documentAnalyzer,
		imageRepository:  imageRepository,
	}

	opts := []service.Option{
		service.WithPublisher(publisher),
		service.WithStats(stats),
		service.WithDefaultProfile(cfg.QualityProfile),
		service.WithBatchConcurrency(cfg.BatchConcurrency),
		service.WithMaxPixels(cfg.MaxImagePixels),
		service.WithAnalysisTimeout(cfg.AnalysisTimeout),
	}
	if cfg.ResultsDB != "" {
		store, err := repository.OpenSQLite(cfg.ResultsDB)
		if err != nil {
			documentAnalyzer.Close()
			return nil, fmt.Errorf("failed to open results database: %w", err)
		}
		c.resultStore = store
		opts = append(opts, service.WithResultStore(store))
	}

	c.documentService = service.NewDocumentService(imageRepository, documentAnalyzer, opts...)
	c.handler = transport.NewHandler(c.documentService, cfg)

	logger.WithFields(logrus.Fields{
		"profile":       cfg.QualityProfile,
		"config_file":   config.Find(cfg.QualityConfigPath),
		"results_db":    cfg.ResultsDB,
		"azure_enabled": cfg.AzureEnabled(),
	}).Info("Container initialised")

	return c, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.ServerConfig {
	return c.config
}

// QualityConfig returns the resolved quality configuration.
func (c *Container) QualityConfig() *config.Config {
	return c.quality
}

// Service returns the document service behind the handler.
func (c *Container) Service() service.DocumentService {
	return c.documentService
}

// Close releases the analyzer's worker pool and the results database.
func (c *Container) Close() error {
	var errs []error
	if err := c.documentAnalyzer.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.resultStore != nil {
		if err := c.resultStore.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
