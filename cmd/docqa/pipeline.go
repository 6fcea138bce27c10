package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/anime-shed/doc-inspector-go/internal/analyzer"
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/factory"
	"github.com/anime-shed/doc-inspector-go/internal/logger"
	"github.com/anime-shed/doc-inspector-go/internal/observer"
	"github.com/anime-shed/doc-inspector-go/internal/report"
	"github.com/anime-shed/doc-inspector-go/internal/repository"
	"github.com/anime-shed/doc-inspector-go/internal/storage"
)

const (
	defaultFetchTimeout = 15 * time.Second
	resultsDBEnv        = "RESULTS_DB"
)

// pipeline bundles what analyze and batch need to score images.
type pipeline struct {
	profile   string
	quality   *config.Config
	router    *storage.Router
	analyzer  analyzer.DocumentAnalyzer
	publisher observer.Subject
	store     *repository.SQLiteStore
}

// addPipelineFlags registers the flags read by newPipeline.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", string(report.FormatMarkdown),
		"Report format: md, csv or json")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to a file instead of stdout (creates directories if needed)")
	cmd.Flags().Duration("timeout", defaultFetchTimeout,
		"Timeout for fetching each remote image")
	cmd.Flags().Int64("max-pixels", 0,
		"Downscale images larger than this many pixels before analysis (0 disables)")
	cmd.Flags().String("db", os.Getenv(resultsDBEnv),
		"SQLite file to record results in (default: $RESULTS_DB; empty disables)")
}

// newPipeline resolves the quality configuration and builds the router and
// analyzer. Azure credentials are read from the environment.
func newPipeline(cmd *cobra.Command) (*pipeline, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	profile, err := cmd.Flags().GetString("profile")
	if err != nil {
		return nil, err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	maxPixels, err := cmd.Flags().GetInt64("max-pixels")
	if err != nil {
		return nil, err
	}
	if maxPixels < 0 {
		return nil, fmt.Errorf("--max-pixels must be >= 0 (got %d)", maxPixels)
	}
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return nil, err
	}

	quality, err := config.Resolve(configPath, profile)
	if err != nil {
		return nil, err
	}
	if path := config.Find(configPath); path != "" {
		logger.WithField("path", path).Debug("using quality configuration file")
	}

	serverCfg := &config.ServerConfig{
		ImageFetchTimeout: timeout,
		MaxImagePixels:    maxPixels,
		AzureAccount:      os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:          os.Getenv("AZURE_STORAGE_KEY"),
	}

	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))

	components := factory.NewComponentFactory(serverCfg, factory.WithPublisher(publisher))
	router, err := components.CreateRouter()
	if err != nil {
		return nil, err
	}
	a, err := components.CreateAnalyzer(quality)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		profile:   profile,
		quality:   quality,
		router:    router,
		analyzer:  a,
		publisher: publisher,
	}
	if dbPath != "" {
		store, err := repository.OpenSQLite(dbPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		p.store = store
	}
	return p, nil
}

// Close releases the worker pool and the results database.
func (p *pipeline) Close() error {
	err := p.analyzer.Close()
	if p.store != nil {
		err = errors.Join(err, p.store.Close())
	}
	return err
}

// reportWriter returns the writer selected by --format and --output. The
// returned close function must be called once writing is done.
func reportWriter(cmd *cobra.Command) (report.Writer, func() error, error) {
	name, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, nil, err
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		return nil, nil, err
	}
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}

	out, closeFn, err := openOutput(cmd.OutOrStdout(), path)
	if err != nil {
		return nil, nil, err
	}
	w, err := report.NewWriter(format, out)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return w, closeFn, nil
}

func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, f.Close, nil
}
