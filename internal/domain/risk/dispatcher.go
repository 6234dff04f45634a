// Package risk - worker-pool event dispatch.
//
// ─────────────────────────────────────────────────────────────────────────────
// The Dispatcher fans entity events out to a fixed worker pool, partitioned
// by lookup attribute so all events for one attribute are handled by the
// same worker in arrival order. Events for different attributes proceed
// independently.
// ─────────────────────────────────────────────────────────────────────────────
package risk

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/pkg/errors"
)

// Processor handles one entity event. *Engine satisfies it; tests substitute
// lighter implementations.
type Processor interface {
	Process(ctx context.Context, ev EntityEvent) ([]ValidatedAlert, error)
}

// Dispatcher owns a pool of workers, each with a private bounded queue.
type Dispatcher struct {
	processor Processor
	logger    logging.Logger

	queues []chan EntityEvent
	wg     sync.WaitGroup

	// mu guards closed and makes Close wait for in-flight sends, so a
	// queue is never closed under a blocked Dispatch.
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher builds a dispatcher with the given worker count and per-worker
// queue depth. Start must be called before Dispatch.
func NewDispatcher(processor Processor, workers, queueDepth int, logger logging.Logger) (*Dispatcher, error) {
	if processor == nil {
		return nil, errors.InvalidParam("dispatcher requires a processor")
	}
	if workers <= 0 {
		workers = 1
	}
	if queueDepth <= 0 {
		queueDepth = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	d := &Dispatcher{
		processor: processor,
		logger:    logger.Named("dispatcher"),
		queues:    make([]chan EntityEvent, workers),
	}
	for i := range d.queues {
		d.queues[i] = make(chan EntityEvent, queueDepth)
	}
	return d, nil
}

// Start launches the worker goroutines. Workers run until their queue is
// closed by Close; ctx bounds the processing of individual events.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, q := range d.queues {
		d.wg.Add(1)
		go d.worker(ctx, i, q)
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int, queue <-chan EntityEvent) {
	defer d.wg.Done()
	log := d.logger.With(logging.Int("worker", id))
	for ev := range queue {
		if _, err := d.processor.Process(ctx, ev); err != nil {
			log.Warn("event processing failed",
				logging.String("entity_key", ev.EntityKey),
				logging.String("attribute", ev.LookupAttribute),
				logging.Err(err))
		}
	}
}

// Dispatch routes an event to its attribute's worker, blocking while that
// worker's queue is full. Returns ErrCodeDispatcherClosed after Close.
func (d *Dispatcher) Dispatch(ctx context.Context, ev EntityEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errors.New(errors.ErrCodeDispatcherClosed, "dispatcher is closed")
	}

	q := d.queues[d.partition(ev.LookupAttribute)]
	select {
	case q <- ev:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.CodeTimeout, "dispatch cancelled")
	}
}

func (d *Dispatcher) partition(attribute string) int {
	h := fnv.New32a()
	h.Write([]byte(attribute))
	return int(h.Sum32() % uint32(len(d.queues)))
}

// Close stops intake and drains the queues, blocking until every queued
// event has been processed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

//Personal.AI order the ending
