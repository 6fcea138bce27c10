package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
	"github.com/anime-shed/doc-inspector-go/internal/logger"
)

const maxFetchAttempts = 3

// HTTPSource fetches images over HTTP(S) with a small retry budget.
type HTTPSource struct {
	client   *http.Client
	backoff  time.Duration
	maxBytes int64
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithBackoff sets the base delay between attempts; attempt n waits n*d.
func WithBackoff(d time.Duration) HTTPOption {
	return func(h *HTTPSource) { h.backoff = d }
}

// WithTimeout sets the overall client timeout per attempt.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPSource) { h.client.Timeout = d }
}

// WithMaxBytes bounds the response body size.
func WithMaxBytes(n int64) HTTPOption {
	return func(h *HTTPSource) { h.maxBytes = n }
}

// NewHTTPSource creates an HTTP source tuned for single image downloads.
func NewHTTPSource(opts ...HTTPOption) *HTTPSource {
	transport := &http.Transport{
		// Connection pooling sized for image fetching
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	h := &HTTPSource{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff:  time.Second,
		maxBytes: DefaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch downloads imageURL. Transport errors and 5xx responses are retried
// up to three attempts in total; 4xx responses fail immediately.
func (h *HTTPSource) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("image fetch cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		data, retry, err := h.fetchOnce(ctx, imageURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retry {
			break
		}

		logger.WithFields(logrus.Fields{
			"url":     imageURL,
			"attempt": attempt + 1,
		}).WithError(err).Warn("image fetch failed, retrying")
	}

	return nil, apperrors.NewNetworkError(
		fmt.Sprintf("failed to fetch image after %d attempts", maxFetchAttempts), lastErr)
}

// fetchOnce performs one request and reports whether a failure is worth
// retrying.
func (h *HTTPSource) fetchOnce(ctx context.Context, imageURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/tiff, image/png, image/jpeg, image/webp, image/bmp, image/gif, */*")
	req.Header.Set("User-Agent", "Doc-Inspector/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := readLimited(resp.Body, h.maxBytes, imageURL)
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}
