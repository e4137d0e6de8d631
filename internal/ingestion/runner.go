package ingestion

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/observability"
	"forecast-lab/internal/storage"
)

// Subscriber provides a live stream of probability updates.
type Subscriber interface {
	Subscribe(ctx context.Context, markets []string) (<-chan Update, error)
}

// Runner consumes one platform's live update stream and persists events in
// deterministic order. Updates are buffered and flushed in sorted batches so
// out-of-order delivery within a flush window does not affect what is stored.
type Runner struct {
	source        Subscriber
	store         storage.ProbabilityEventStore
	platform      domain.Platform
	markets       []string
	flushInterval time.Duration
	logger        *log.Logger

	buffer []*domain.ProbabilityEvent

	eventsProcessed atomic.Int64
	eventsStored    atomic.Int64
	duplicates      atomic.Int64
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source        Subscriber
	Store         storage.ProbabilityEventStore
	Platform      domain.Platform
	Markets       []string      // empty subscribes to every market
	FlushInterval time.Duration // Default: 5s
	Logger        *log.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		source:        opts.Source,
		store:         opts.Store,
		platform:      opts.Platform,
		markets:       opts.Markets,
		flushInterval: flushInterval,
		logger:        logger,
	}
}

// Run starts continuous ingestion. It blocks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("Starting ingestion runner for %s...", r.platform)

	updates, err := r.source.Subscribe(ctx, r.markets)
	if err != nil {
		return err
	}
	r.logger.Printf("Subscribed to %s probability updates", r.platform)

	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Flush remaining events before shutdown
			r.flush(context.WithoutCancel(ctx))
			r.logger.Println("Runner stopping...")
			return ctx.Err()

		case update, ok := <-updates:
			if !ok {
				r.flush(ctx)
				r.logger.Println("Update channel closed")
				return errors.New("update channel closed")
			}
			r.buffer = append(r.buffer, update.Event())
			r.eventsProcessed.Add(1)
			observability.RecordEventProcessed(string(r.platform))

		case <-flushTicker.C:
			r.flush(ctx)
		}
	}
}

// flush sorts, dedups, and stores the buffered events.
func (r *Runner) flush(ctx context.Context) {
	if len(r.buffer) == 0 {
		return
	}

	start := time.Now()
	defer func() {
		observability.RecordFlushLatency(string(r.platform), time.Since(start).Seconds())
	}()

	events := r.buffer
	r.buffer = nil

	SortEvents(events)
	deduped := DedupEvents(events)
	r.duplicates.Add(int64(len(events) - len(deduped)))

	err := r.store.InsertBulk(ctx, deduped)
	if err == nil {
		r.eventsStored.Add(int64(len(deduped)))
		for range deduped {
			observability.RecordEventStored(string(r.platform))
		}
		observability.RecordIngestionHealthy()
		return
	}

	if !errors.Is(err, storage.ErrDuplicateKey) {
		r.logger.Printf("Error storing event batch: %v", err)
		observability.RecordEventError(string(r.platform), "store")
		return
	}

	// The batch failed on a cross-batch duplicate. Retry events one at a time
	// so the rest of the batch still lands.
	for _, e := range deduped {
		err := r.store.InsertBulk(ctx, []*domain.ProbabilityEvent{e})
		switch {
		case err == nil:
			r.eventsStored.Add(1)
			observability.RecordEventStored(string(r.platform))
		case errors.Is(err, storage.ErrDuplicateKey):
			r.duplicates.Add(1)
		default:
			r.logger.Printf("Error storing event for market %s: %v", e.MarketID, err)
			observability.RecordEventError(string(r.platform), "store")
		}
	}
	observability.RecordIngestionHealthy()
}

// RunnerStats reports runner counters.
type RunnerStats struct {
	EventsProcessed int64
	EventsStored    int64
	Duplicates      int64
}

// Stats returns current runner statistics.
func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		EventsProcessed: r.eventsProcessed.Load(),
		EventsStored:    r.eventsStored.Load(),
		Duplicates:      r.duplicates.Load(),
	}
}
