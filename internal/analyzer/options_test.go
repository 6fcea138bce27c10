package analyzer

import (
	"testing"

	"github.com/anime-shed/doc-inspector-go/internal/metrics"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.ImageID != "" || opts.FilePath != "" {
		t.Error("Expected no source by default")
	}
	if opts.Metadata != nil {
		t.Error("Expected nil metadata by default")
	}
	if opts.SkipSLA {
		t.Error("Expected SLA evaluation by default")
	}
}

func TestOptionsChaining(t *testing.T) {
	md := &metrics.Metadata{Format: "png", DPIX: 300, DPIY: 300}
	base := DefaultOptions()

	opts := base.WithSource("scan-1", "/data/scan-1.png").WithMetadata(md).WithoutSLA()

	if opts.ImageID != "scan-1" || opts.FilePath != "/data/scan-1.png" {
		t.Errorf("source = %q %q", opts.ImageID, opts.FilePath)
	}
	if opts.Metadata != md {
		t.Error("Expected metadata to be set")
	}
	if !opts.SkipSLA {
		t.Error("Expected SkipSLA")
	}

	// value receivers leave the original untouched
	if base.ImageID != "" || base.SkipSLA || base.Metadata != nil {
		t.Errorf("base options modified: %+v", base)
	}
}
