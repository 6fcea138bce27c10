package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
)

// DefaultMaxImageBytes bounds a single fetched image.
const DefaultMaxImageBytes = 100 << 20

// Source fetches the raw bytes of an image.
type Source interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Router dispatches a location to the source for its scheme: plain paths and
// file:// go to the file source, http(s):// to the HTTP source and
// azblob:// to the Azure source when one is configured.
type Router struct {
	file      Source
	http      Source
	azure     Source
	maxPixels int64
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithHTTPSource replaces the default HTTP source.
func WithHTTPSource(s Source) RouterOption {
	return func(r *Router) { r.http = s }
}

// WithAzureSource enables azblob:// locations.
func WithAzureSource(s Source) RouterOption {
	return func(r *Router) { r.azure = s }
}

// WithMaxPixels downscales decoded images larger than n pixels.
func WithMaxPixels(n int64) RouterOption {
	return func(r *Router) { r.maxPixels = n }
}

// NewRouter creates a router with file and HTTP sources.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		file: NewFileSource(DefaultMaxImageBytes),
		http: NewHTTPSource(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch returns the bytes at location.
func (r *Router) Fetch(ctx context.Context, location string) ([]byte, error) {
	src, err := r.sourceFor(location)
	if err != nil {
		return nil, err
	}
	return src.Fetch(ctx, location)
}

// Load fetches and decodes location.
func (r *Router) Load(ctx context.Context, location string) (*Decoded, error) {
	data, err := r.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	d, err := Decode(data, NameOf(location))
	if err != nil {
		return nil, err
	}
	d.Downscale(r.maxPixels)
	return d, nil
}

func (r *Router) sourceFor(location string) (Source, error) {
	switch scheme(location) {
	case "", "file":
		return r.file, nil
	case "http", "https":
		return r.http, nil
	case "azblob":
		if r.azure == nil {
			return nil, apperrors.NewValidationError("azure storage is not configured", nil)
		}
		return r.azure, nil
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported location scheme in %q", location), nil)
	}
}

// scheme returns the lower-case URL scheme, or "" for plain paths. Windows
// drive letters are not schemes.
func scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 1 {
		return ""
	}
	return strings.ToLower(location[:i])
}

// NameOf returns the file name part of a path or URL, used as the default
// image id.
func NameOf(location string) string {
	if scheme(location) == "" {
		return filepath.Base(location)
	}
	u, err := url.Parse(location)
	if err != nil || u.Path == "" || u.Path == "/" {
		return location
	}
	return path.Base(u.Path)
}

// FileSource reads images from the local filesystem.
type FileSource struct {
	maxBytes int64
}

// NewFileSource creates a file source refusing files above maxBytes.
func NewFileSource(maxBytes int64) *FileSource {
	return &FileSource{maxBytes: maxBytes}
}

func (s *FileSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("fetch cancelled", err)
	}

	p := strings.TrimPrefix(location, "file://")
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("image %s not found", p), err)
		}
		return nil, apperrors.NewInputError(fmt.Sprintf("cannot open %s", p), err)
	}
	defer f.Close()

	return readLimited(f, s.maxBytes, p)
}

func readLimited(r io.Reader, maxBytes int64, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("cannot read %s", name), err)
	}
	if int64(len(data)) > maxBytes {
		return nil, apperrors.NewInputError(fmt.Sprintf("%s exceeds %d bytes", name, maxBytes), nil)
	}
	return data, nil
}
