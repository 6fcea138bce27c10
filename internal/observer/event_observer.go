package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents an analysis event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ImageID        string                 `json:"image_id,omitempty"`
	Location       string                 `json:"location,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when analysis begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when analysis finishes; Metadata carries status, stars and score
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when an image cannot be decoded or analysed
	AnalysisFailed EventType = "analysis_failed"
	// MetricFailed when one metric computer fails; Metadata carries the category
	MetricFailed EventType = "metric_failed"
	// ImageFetched when image bytes are fetched
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when image fetch fails
	ImageFetchFailed EventType = "image_fetch_failed"
	// BatchCompleted when a batch run finishes
	BatchCompleted EventType = "batch_completed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"image_id":        event.ImageID,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.Location != "" {
		fields["location"] = event.Location
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Document analysis started")
	case AnalysisCompleted:
		entry.Info("Document analysis completed")
	case AnalysisFailed:
		entry.Error("Document analysis failed")
	case MetricFailed:
		entry.Warn("Metric computation failed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	case BatchCompleted:
		entry.Info("Batch completed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Stats is a snapshot of StatsObserver counters.
type Stats struct {
	TotalAnalyses      int64          `json:"total_analyses"`
	SuccessfulAnalyses int64          `json:"successful_analyses"`
	FailedAnalyses     int64          `json:"failed_analyses"`
	MetricFailures     int64          `json:"metric_failures"`
	Batches            int64          `json:"batches"`
	StatusCounts       map[string]int `json:"status_counts"`
	AvgProcessingTime  time.Duration  `json:"avg_processing_time"`
}

// StatsObserver counts analysis outcomes.
type StatsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	metricFailures      int64
	batches             int64
	statusCounts        map[string]int
	totalProcessingTime time.Duration
}

// NewStatsObserver creates a new stats observer
func NewStatsObserver() *StatsObserver {
	return &StatsObserver{statusCounts: make(map[string]int)}
}

// OnEvent handles analysis events by collecting counters
func (o *StatsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalProcessingTime += event.ProcessingTime
		if s, ok := event.Metadata["status"].(string); ok {
			o.statusCounts[s]++
		}
	case AnalysisFailed:
		o.failedAnalyses++
	case MetricFailed:
		o.metricFailures++
	case BatchCompleted:
		o.batches++
	}
}

// GetObserverName returns the observer name
func (o *StatsObserver) GetObserverName() string {
	return "stats_observer"
}

// Snapshot returns the current counters
func (o *StatsObserver) Snapshot() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	s := Stats{
		TotalAnalyses:      o.totalAnalyses,
		SuccessfulAnalyses: o.successfulAnalyses,
		FailedAnalyses:     o.failedAnalyses,
		MetricFailures:     o.metricFailures,
		Batches:            o.batches,
		StatusCounts:       make(map[string]int, len(o.statusCounts)),
	}
	for k, v := range o.statusCounts {
		s.StatusCounts[k] = v
	}
	if o.successfulAnalyses > 0 {
		s.AvgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulAnalyses)
	}
	return s
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer concurrently and returns
// once all of them have handled it.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	var wg sync.WaitGroup
	for _, observer := range observers {
		wg.Add(1)
		go func(obs Observer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
	wg.Wait()
}

// Nop is a Subject that drops every event.
type Nop struct{}

func (Nop) Subscribe(Observer)                             {}
func (Nop) Unsubscribe(Observer)                           {}
func (Nop) NotifyObservers(context.Context, AnalysisEvent) {}
