// Package batch analyses many images concurrently while keeping results in
// input order. A failing image produces an error entry and never stops its
// siblings.
package batch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/doc-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
	"github.com/anime-shed/doc-inspector-go/internal/logger"
	"github.com/anime-shed/doc-inspector-go/internal/observer"
	"github.com/anime-shed/doc-inspector-go/internal/scoring"
	"github.com/anime-shed/doc-inspector-go/internal/sla"
	"github.com/anime-shed/doc-inspector-go/internal/storage"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

const defaultConcurrency = 4

// Loader turns a location into a decoded image. *storage.Router satisfies
// it.
type Loader interface {
	Load(ctx context.Context, location string) (*storage.Decoded, error)
}

// Item is one batch entry: exactly one of Record and Failure is set.
type Item struct {
	Record  *models.AnalysisRecord
	Failure *models.FailedAnalysis
}

// OK reports whether the image was analysed.
func (it Item) OK() bool {
	return it.Record != nil
}

// ImageID returns the id of whichever entry is set.
func (it Item) ImageID() string {
	if it.Record != nil {
		return it.Record.ImageID
	}
	if it.Failure != nil {
		return it.Failure.ImageID
	}
	return ""
}

// FilePath returns the location of whichever entry is set.
func (it Item) FilePath() string {
	if it.Record != nil {
		return it.Record.FilePath
	}
	if it.Failure != nil {
		return it.Failure.FilePath
	}
	return ""
}

// MarshalJSON encodes the record or the error entry directly.
func (it Item) MarshalJSON() ([]byte, error) {
	if it.Record != nil {
		return json.Marshal(it.Record)
	}
	return json.Marshal(it.Failure)
}

// Summary tallies a batch.
type Summary struct {
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Statuses  map[scoring.Status]int `json:"statuses"`
	SLA       *sla.Summary           `json:"sla,omitempty"`
	Elapsed   float64                `json:"elapsed_sec"`
}

// Result is the ordered output of one batch run.
type Result struct {
	Items   []Item  `json:"results"`
	Summary Summary `json:"summary"`
}

// Processor runs whole analyses for a list of locations.
type Processor struct {
	analyzer    analyzer.DocumentAnalyzer
	loader      Loader
	concurrency int
	log         *logrus.Entry
	publisher   observer.Subject
	onItem      func(index int, item Item)
}

// Option configures a Processor.
type Option func(*Processor)

// WithConcurrency sets how many images are analysed at once. Non-positive
// values keep the default.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithBatchLogger sets the entry used for batch-level logging.
func WithBatchLogger(entry *logrus.Entry) Option {
	return func(p *Processor) {
		if entry != nil {
			p.log = entry
		}
	}
}

// WithPublisher sends a BatchCompleted event at the end of each run.
func WithPublisher(s observer.Subject) Option {
	return func(p *Processor) {
		if s != nil {
			p.publisher = s
		}
	}
}

// WithItemCallback is called as each image finishes, from the goroutine
// that processed it.
func WithItemCallback(fn func(index int, item Item)) Option {
	return func(p *Processor) { p.onItem = fn }
}

// NewProcessor creates a processor analysing images from loader with a.
func NewProcessor(a analyzer.DocumentAnalyzer, loader Loader, opts ...Option) *Processor {
	p := &Processor{
		analyzer:    a,
		loader:      loader,
		concurrency: defaultConcurrency,
		log:         logger.WithField("component", "batch"),
		publisher:   observer.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process analyses every location. The returned items are in input order
// and there is one per location. The error is non-nil only when ctx ends
// before the batch completes; items not started by then carry the context
// error.
func (p *Processor) Process(ctx context.Context, locations []string) (*Result, error) {
	start := time.Now()
	p.log.WithFields(logrus.Fields{
		"total":       len(locations),
		"concurrency": p.concurrency,
	}).Info("starting batch")

	items := make([]Item, len(locations))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, location := range locations {
		i, location := i, location
		g.Go(func() error {
			var item Item
			if err := ctx.Err(); err != nil {
				item = failure(location, apperrors.NewTimeoutError("batch cancelled", err))
			} else {
				item = p.processOne(ctx, location)
			}

			// each goroutine owns its slot
			items[i] = item
			if p.onItem != nil {
				p.onItem(i, item)
			}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	res := &Result{Items: items, Summary: Summarize(items)}
	res.Summary.Elapsed = time.Since(start).Seconds()

	p.log.WithFields(logrus.Fields{
		"total":     res.Summary.Total,
		"succeeded": res.Summary.Succeeded,
		"failed":    res.Summary.Failed,
		"elapsed":   time.Since(start).String(),
	}).Info("batch complete")

	p.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.BatchCompleted,
		ProcessingTime: time.Since(start),
		Success:        res.Summary.Failed == 0,
		Metadata: map[string]interface{}{
			"total":     res.Summary.Total,
			"succeeded": res.Summary.Succeeded,
			"failed":    res.Summary.Failed,
		},
	})

	return res, ctx.Err()
}

func (p *Processor) processOne(ctx context.Context, location string) Item {
	decoded, err := p.loader.Load(ctx, location)
	if err != nil {
		p.log.WithError(err).WithField("location", location).Warn("image could not be loaded")
		return failure(location, err)
	}

	opts := analyzer.DefaultOptions().
		WithSource(storage.NameOf(location), location).
		WithMetadata(decoded.Metadata)

	rec, err := p.analyzer.Analyze(ctx, decoded.Image, opts)
	if err != nil {
		p.log.WithError(err).WithField("location", location).Warn("image could not be analysed")
		return failure(location, err)
	}
	return Item{Record: rec}
}

func failure(location string, err error) Item {
	return Item{Failure: models.NewFailedAnalysis(storage.NameOf(location), location, err)}
}

// Summarize tallies statuses and SLA compliance over items.
func Summarize(items []Item) Summary {
	s := Summary{
		Total:    len(items),
		Statuses: make(map[scoring.Status]int, 3),
	}
	var slaResults []*sla.Result
	for _, it := range items {
		if !it.OK() {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Statuses[it.Record.Global.Status]++
		slaResults = append(slaResults, it.Record.SLA)
	}
	if summary := sla.Summarize(slaResults); summary.Enabled {
		s.SLA = summary
	}
	return s
}
