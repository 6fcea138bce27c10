package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"input", NewInputError("bad image", nil), ErrorTypeInput, http.StatusBadRequest},
		{"config", NewConfigError("bad config", nil), ErrorTypeConfig, http.StatusUnprocessableEntity},
		{"metric", NewMetricComputationError("sharpness failed", nil), ErrorTypeMetricComputation, http.StatusInternalServerError},
		{"aggregation", NewAggregationError("missing record", nil), ErrorTypeAggregation, http.StatusInternalServerError},
		{"network", NewNetworkError("fetch failed", nil), ErrorTypeNetwork, http.StatusBadGateway},
		{"not found", NewNotFoundError("no result", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"unavailable", NewUnavailableError("history disabled", nil), ErrorTypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, tt.err.Type)
			}
			if GetStatusCode(tt.err) != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, GetStatusCode(tt.err))
			}
		})
	}
}

func TestIsType_Wrapped(t *testing.T) {
	base := NewInputError("cannot decode", io.ErrUnexpectedEOF)
	wrapped := fmt.Errorf("analyze scan.png: %w", base)

	if !IsType(wrapped, ErrorTypeInput) {
		t.Error("Expected wrapped error to match input type")
	}
	if IsType(wrapped, ErrorTypeConfig) {
		t.Error("Expected wrapped error not to match config type")
	}
	if GetStatusCode(wrapped) != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", GetStatusCode(wrapped))
	}
	if IsType(io.EOF, ErrorTypeInput) {
		t.Error("Expected plain error not to match")
	}
}

func TestAppError_Error(t *testing.T) {
	err := NewConfigError("unknown key", io.EOF)
	if got := err.Error(); got != "config: unknown key (caused by: EOF)" {
		t.Errorf("Unexpected message %q", got)
	}

	detailed := err.WithDetails("line 3")
	if detailed.Details != "line 3" || err.Details != "" {
		t.Error("Expected WithDetails to return a copy")
	}
}
