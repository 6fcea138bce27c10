package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds process settings read from the environment.
type ServerConfig struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	// QualityConfigPath points at a YAML quality configuration; empty means
	// search the default locations.
	QualityConfigPath string
	QualityProfile    string
	// ResultsDB is the sqlite path for result history; empty disables it.
	ResultsDB        string
	BatchConcurrency int
	// MaxImagePixels downscales larger images before analysis; 0 disables.
	MaxImagePixels   int64

	AzureAccount string
	AzureKey     string
}

func (c *ServerConfig) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob credentials were supplied.
func (c *ServerConfig) AzureEnabled() bool {
	return c.AzureAccount != "" && c.AzureKey != ""
}

func LoadFromEnv() (*ServerConfig, error) {
	// Set defaults
	cfg := &ServerConfig{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 50*1024*1024), // 50MB
		QualityConfigPath:  os.Getenv("QUALITY_CONFIG"),
		QualityProfile:     os.Getenv("QUALITY_PROFILE"),
		ResultsDB:          os.Getenv("RESULTS_DB"),
		BatchConcurrency:   int(parseIntOrDefault("BATCH_CONCURRENCY", 4)),
		MaxImagePixels:     parseIntOrDefault("MAX_IMAGE_PIXELS", 0),
		AzureAccount:       os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:           os.Getenv("AZURE_STORAGE_KEY"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.AnalysisTimeout)
	}
	if cfg.BatchConcurrency < 1 {
		return nil, fmt.Errorf("BATCH_CONCURRENCY must be >= 1 (got %d)", cfg.BatchConcurrency)
	}
	if cfg.MaxImagePixels < 0 {
		return nil, fmt.Errorf("MAX_IMAGE_PIXELS must be >= 0 (got %d)", cfg.MaxImagePixels)
	}
	if (cfg.AzureAccount == "") != (cfg.AzureKey == "") {
		return nil, fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
