package repository

import (
	"context"

	"github.com/anime-shed/doc-inspector-go/internal/storage"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// Load fetches and decodes the image at location
	Load(ctx context.Context, location string) (*storage.Decoded, error)

	// ValidateLocation checks a caller-supplied location before any I/O
	ValidateLocation(location string) error
}

// ResultStore persists analysis records for later lookup.
type ResultStore interface {
	// Save stores rec under a new id, assigns rec.ID and returns the row.
	Save(ctx context.Context, rec *models.AnalysisRecord, profile string) (*models.StoredAnalysis, error)

	// Get returns ErrResultNotFound for an unknown id.
	Get(ctx context.Context, id string) (*models.StoredAnalysis, error)

	// History lists results for one file path, newest first.
	History(ctx context.Context, filePath string, limit int) ([]*models.StoredAnalysis, error)

	// Recent lists the newest results across all files.
	Recent(ctx context.Context, limit int) ([]*models.StoredAnalysis, error)

	Close() error
}
