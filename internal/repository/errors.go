package repository

import "errors"

var (
	// ErrInvalidLocation indicates an image location that fails validation
	ErrInvalidLocation = errors.New("invalid image location")

	// ErrResultNotFound indicates the analysis result was not found
	ErrResultNotFound = errors.New("analysis result not found")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
