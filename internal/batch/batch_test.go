package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anime-shed/doc-inspector-go/internal/analyzer"
	"github.com/anime-shed/doc-inspector-go/internal/observer"
	"github.com/anime-shed/doc-inspector-go/internal/storage"
)

// memLoader serves encoded images from memory.
type memLoader struct {
	files map[string][]byte
	delay time.Duration

	current atomic.Int32
	peak    atomic.Int32
	mu      sync.Mutex
}

func (l *memLoader) Load(ctx context.Context, location string) (*storage.Decoded, error) {
	n := l.current.Add(1)
	defer l.current.Add(-1)
	l.mu.Lock()
	if n > l.peak.Load() {
		l.peak.Store(n)
	}
	l.mu.Unlock()
	if l.delay > 0 {
		time.Sleep(l.delay)
	}

	data, ok := l.files[location]
	if !ok {
		return nil, fmt.Errorf("no such image %s", location)
	}
	return storage.Decode(data, storage.NameOf(location))
}

func documentPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{10, 10, 10, 255}
			if x >= w/10 && x < w-w/10 && y >= h/10 && y < h-h/10 {
				c = color.RGBA{236, 236, 236, 255}
				if y%16 < 2 && x > w/5 && x < w-w/5 {
					c = color.RGBA{30, 30, 30, 255}
				}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func newAnalyzer(t *testing.T) analyzer.DocumentAnalyzer {
	t.Helper()
	a, err := analyzer.NewAnalyzer(nil, analyzer.WithWorkers(2))
	if err != nil {
		t.Fatalf("analyzer: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestProcessorNew(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		p := NewProcessor(nil, nil)
		if p.concurrency != defaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", defaultConcurrency, p.concurrency)
		}
		if p.log == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		p := NewProcessor(nil, nil, WithConcurrency(0), WithBatchLogger(nil))
		if p.concurrency != defaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", defaultConcurrency, p.concurrency)
		}
		if p.log == nil {
			t.Error("expected non-nil logger")
		}
	})
}

func TestProcess_OrderAndFailures(t *testing.T) {
	good := documentPNG(t, 160, 120)
	loader := &memLoader{files: map[string][]byte{
		"/in/a.png": good,
		"/in/b.png": good,
		"/in/c.png": []byte("definitely not a png"),
		"/in/d.png": good,
		"/in/e.png": good,
	}}
	locations := []string{"/in/a.png", "/in/b.png", "/in/c.png", "/in/d.png", "/in/e.png"}

	p := NewProcessor(newAnalyzer(t), loader, WithConcurrency(3))
	res, err := p.Process(context.Background(), locations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(res.Items))
	}
	for i, item := range res.Items {
		if item.FilePath() != locations[i] {
			t.Errorf("item[%d]: got %q, expected %q", i, item.FilePath(), locations[i])
		}
	}

	bad := res.Items[2]
	if bad.OK() || bad.Failure == nil {
		t.Fatal("expected undecodable image to fail")
	}
	if bad.Failure.ImageID != "c.png" || bad.Failure.Error == "" {
		t.Errorf("unexpected failure entry: %+v", bad.Failure)
	}
	if bad.Failure.Global.Status != "error" || bad.Failure.Global.Stars != 0 || bad.Failure.Global.Score != 0 {
		t.Errorf("unexpected failure global: %+v", bad.Failure.Global)
	}

	if res.Summary.Total != 5 || res.Summary.Succeeded != 4 || res.Summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", res.Summary)
	}
	statusTotal := 0
	for _, n := range res.Summary.Statuses {
		statusTotal += n
	}
	if statusTotal != 4 {
		t.Errorf("status tally covers %d images, want 4", statusTotal)
	}
	if res.Summary.SLA == nil || res.Summary.SLA.TotalAnalyzed != 4 {
		t.Errorf("expected SLA summary over 4 images, got %+v", res.Summary.SLA)
	}
}

func TestProcess_ItemJSON(t *testing.T) {
	loader := &memLoader{files: map[string][]byte{"ok.png": documentPNG(t, 80, 60)}}
	p := NewProcessor(newAnalyzer(t), loader)

	res, err := p.Process(context.Background(), []string{"ok.png", "missing.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := json.Marshal(res.Items)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded []map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded[0]["metrics"]; !ok {
		t.Error("successful item should encode the full record")
	}
	if _, ok := decoded[1]["error"]; !ok {
		t.Error("failed item should encode the error entry")
	}
	global, _ := decoded[1]["global"].(map[string]interface{})
	if global["status"] != "error" {
		t.Errorf("failed item global = %v", global)
	}
}

func TestProcess_RespectsConcurrency(t *testing.T) {
	good := documentPNG(t, 40, 30)
	files := make(map[string][]byte)
	locations := make([]string, 8)
	for i := range locations {
		locations[i] = fmt.Sprintf("img-%d.png", i)
		files[locations[i]] = good
	}
	loader := &memLoader{files: files, delay: 20 * time.Millisecond}

	p := NewProcessor(newAnalyzer(t), loader, WithConcurrency(2))
	if _, err := p.Process(context.Background(), locations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak := loader.peak.Load(); peak > 2 {
		t.Errorf("max concurrent was %d, expected <= 2", peak)
	}
}

func TestProcess_Cancelled(t *testing.T) {
	loader := &memLoader{files: map[string][]byte{"a.png": documentPNG(t, 40, 30)}}
	p := NewProcessor(newAnalyzer(t), loader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Process(ctx, []string{"a.png", "a.png"})
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected an entry per location, got %d", len(res.Items))
	}
	for i, item := range res.Items {
		if item.OK() {
			t.Errorf("item[%d] should not have been analysed", i)
		}
	}
}

func TestProcess_CallbackAndEvents(t *testing.T) {
	loader := &memLoader{files: map[string][]byte{"a.png": documentPNG(t, 40, 30)}}

	publisher := observer.NewEventPublisher()
	stats := observer.NewStatsObserver()
	publisher.Subscribe(stats)

	var mu sync.Mutex
	seen := make(map[int]bool)
	p := NewProcessor(newAnalyzer(t), loader,
		WithPublisher(publisher),
		WithItemCallback(func(index int, item Item) {
			mu.Lock()
			seen[index] = true
			mu.Unlock()
		}),
	)

	if _, err := p.Process(context.Background(), []string{"a.png", "b.png", "a.png"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 {
		t.Errorf("callback saw %d items, want 3", len(seen))
	}
	if stats.Snapshot().Batches != 1 {
		t.Errorf("expected one batch event, got %d", stats.Snapshot().Batches)
	}
}
