// Package validation checks caller-supplied image locations before the
// service touches the network or blob storage.
package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
)

// SchemeAzureBlob is the location scheme served by the Azure source.
const SchemeAzureBlob = "azblob"

// URLValidator accepts image locations by scheme and, optionally, host.
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator accepts http and https locations on any host.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// WithScheme returns a validator that also accepts scheme. The receiver is
// unchanged.
func (v *URLValidator) WithScheme(scheme string) *URLValidator {
	schemes := make([]string, len(v.allowedSchemes), len(v.allowedSchemes)+1)
	copy(schemes, v.allowedSchemes)
	if !contains(schemes, scheme) {
		schemes = append(schemes, scheme)
	}
	return &URLValidator{allowedSchemes: schemes, allowedHosts: v.allowedHosts}
}

// ValidateImageURL validates a location for remote image loading. Plain
// paths and file URLs never pass. Blob locations need a container and a
// blob name; host restrictions apply to web URLs only.
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if parsedURL.Scheme == "" || !contains(v.allowedSchemes, parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.User != nil {
		return apperrors.NewValidationError("URL must not carry credentials", nil)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if parsedURL.Scheme == SchemeAzureBlob {
		if strings.Trim(parsedURL.Path, "/") == "" {
			return apperrors.NewValidationError("blob URL must name a blob", nil)
		}
		return nil
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

// isHostAllowed reports whether host may be fetched. No restriction list
// means every host is allowed.
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	return contains(v.allowedHosts, strings.ToLower(host))
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
