package repository

import (
	"context"
	"fmt"

	"github.com/anime-shed/doc-inspector-go/internal/storage"
	"github.com/anime-shed/doc-inspector-go/pkg/validation"
)

// RemoteImageRepository loads images for API callers. Only locations the
// validator accepts are fetched, so remote callers cannot read local files.
type RemoteImageRepository struct {
	loader    *storage.Router
	validator *validation.URLValidator
}

// NewRemoteImageRepository creates a repository over loader restricted by
// validator.
func NewRemoteImageRepository(loader *storage.Router, validator *validation.URLValidator) ImageRepository {
	return &RemoteImageRepository{
		loader:    loader,
		validator: validator,
	}
}

// Load validates location and then fetches and decodes it.
func (r *RemoteImageRepository) Load(ctx context.Context, location string) (*storage.Decoded, error) {
	if err := r.ValidateLocation(location); err != nil {
		return nil, err
	}
	return r.loader.Load(ctx, location)
}

// ValidateLocation validates if the provided location is acceptable
func (r *RemoteImageRepository) ValidateLocation(location string) error {
	if err := r.validator.ValidateImageURL(location); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	return nil
}
