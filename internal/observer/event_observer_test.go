package observer

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type panickyObserver struct{}

func (panickyObserver) OnEvent(context.Context, AnalysisEvent) { panic("boom") }
func (panickyObserver) GetObserverName() string                { return "panicky" }

func TestStatsObserver_Counts(t *testing.T) {
	stats := NewStatsObserver()
	pub := NewEventPublisher()
	pub.Subscribe(stats)
	pub.Subscribe(panickyObserver{})

	ctx := context.Background()
	pub.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisStarted, ImageID: "a"})
	pub.NotifyObservers(ctx, AnalysisEvent{
		EventType:      AnalysisCompleted,
		ImageID:        "a",
		Success:        true,
		ProcessingTime: 2 * time.Second,
		Metadata:       map[string]interface{}{"status": "pass"},
	})
	pub.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisStarted, ImageID: "b"})
	pub.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisFailed, ImageID: "b"})
	pub.NotifyObservers(ctx, AnalysisEvent{EventType: MetricFailed, ImageID: "a"})
	pub.NotifyObservers(ctx, AnalysisEvent{EventType: BatchCompleted})

	s := stats.Snapshot()
	if s.TotalAnalyses != 2 || s.SuccessfulAnalyses != 1 || s.FailedAnalyses != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.MetricFailures != 1 || s.Batches != 1 {
		t.Errorf("metric failures / batches = %d / %d", s.MetricFailures, s.Batches)
	}
	if s.StatusCounts["pass"] != 1 {
		t.Errorf("status counts = %v", s.StatusCounts)
	}
	if s.AvgProcessingTime != 2*time.Second {
		t.Errorf("avg processing time = %v", s.AvgProcessingTime)
	}
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	stats := NewStatsObserver()
	pub := NewEventPublisher()
	pub.Subscribe(stats)
	pub.Unsubscribe(stats)

	pub.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})
	if got := stats.Snapshot().TotalAnalyses; got != 0 {
		t.Errorf("unsubscribed observer saw %d events", got)
	}
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	obs := NewLoggingObserver(log)
	obs.OnEvent(context.Background(), AnalysisEvent{
		EventType:    AnalysisFailed,
		ImageID:      "scan-7",
		ErrorMessage: "undecodable",
	})

	out := buf.String()
	for _, want := range []string{`"image_id":"scan-7"`, `"error":"undecodable"`, "Document analysis failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}
