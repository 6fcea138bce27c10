package factory

import (
	"context"
	"testing"
	"time"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/observer"
	"github.com/anime-shed/doc-inspector-go/internal/storage"
)

func serverConfig() *config.ServerConfig {
	return &config.ServerConfig{
		ImageFetchTimeout: 5 * time.Second,
		MaxImagePixels:    1_000_000,
	}
}

func TestCreateSource(t *testing.T) {
	f := NewComponentFactory(serverConfig())

	tests := []struct {
		name       string
		sourceType SourceType
		wantErr    bool
	}{
		{"file", FileSource, false},
		{"http", HTTPSource, false},
		{"azure without credentials", AzureSource, true},
		{"unknown", SourceType("ftp"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := f.CreateSource(tt.sourceType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateSource(%s) error = %v, wantErr %v", tt.sourceType, err, tt.wantErr)
			}
			if !tt.wantErr && src == nil {
				t.Error("expected a source")
			}
		})
	}
}

func TestCreateSource_Azure(t *testing.T) {
	cfg := serverConfig()
	cfg.AzureAccount = "docstore"
	cfg.AzureKey = "c2VjcmV0LWtleQ=="

	src, err := NewComponentFactory(cfg).CreateSource(AzureSource)
	if err != nil {
		t.Fatalf("CreateSource failed: %v", err)
	}
	if _, ok := src.(*storage.AzureSource); !ok {
		t.Errorf("expected *storage.AzureSource, got %T", src)
	}
}

func TestCreateRouter_AzureDisabled(t *testing.T) {
	router, err := NewComponentFactory(serverConfig()).CreateRouter()
	if err != nil {
		t.Fatalf("CreateRouter failed: %v", err)
	}
	if _, err := router.Fetch(context.Background(), "azblob://scans/page.png"); err == nil {
		t.Error("expected azblob locations to be rejected without credentials")
	}
}

func TestCreateValidator(t *testing.T) {
	plain := NewComponentFactory(serverConfig()).CreateValidator()
	if err := plain.ValidateImageURL("azblob://scans/page.png"); err == nil {
		t.Error("expected azblob to be rejected without credentials")
	}

	cfg := serverConfig()
	cfg.AzureAccount = "docstore"
	cfg.AzureKey = "c2VjcmV0LWtleQ=="
	withAzure := NewComponentFactory(cfg).CreateValidator()
	if err := withAzure.ValidateImageURL("azblob://scans/page.png"); err != nil {
		t.Errorf("expected azblob to be accepted, got %v", err)
	}
	if err := withAzure.ValidateImageURL("https://example.com/page.png"); err != nil {
		t.Errorf("expected https to stay accepted, got %v", err)
	}
}

func TestCreateAnalyzer(t *testing.T) {
	publisher := observer.NewEventPublisher()
	f := NewComponentFactory(serverConfig(), WithPublisher(publisher), WithWorkers(2))

	a, err := f.CreateAnalyzer(config.Default())
	if err != nil {
		t.Fatalf("CreateAnalyzer failed: %v", err)
	}
	defer a.Close()

	if a.Config() == nil {
		t.Error("expected analyzer to expose its config")
	}

	bad := config.Default().WithWeight("sharpness", -1)
	if _, err := f.CreateAnalyzer(bad); err == nil {
		t.Error("expected invalid configuration to be rejected")
	}
}
