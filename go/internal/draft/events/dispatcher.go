package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/metrics"
)

// Handler is a sink for domain events: persistence, the event bus.
type Handler interface {
	Handle(ctx context.Context, event DomainEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event DomainEvent) error

func (f HandlerFunc) Handle(ctx context.Context, event DomainEvent) error { return f(ctx, event) }

type Config struct {
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		BufferSize: 1024,
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
	}
}

// Dispatcher delivers domain events to its handlers on a single goroutine, in
// the order they were recorded. Recording never blocks.
type Dispatcher struct {
	handlers []Handler
	queue    chan DomainEvent
	config   Config
	metrics  metrics.Collector

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewDispatcher(cfg Config, m metrics.Collector, handlers ...Handler) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &Dispatcher{
		handlers: handlers,
		queue:    make(chan DomainEvent, cfg.BufferSize),
		config:   cfg,
		metrics:  metrics.OrNoOp(m),
		stopChan: make(chan struct{}),
	}
}

// Record queues an event for delivery. It reports false when the queue is full
// and the event was dropped.
func (d *Dispatcher) Record(event DomainEvent) bool {
	select {
	case d.queue <- event:
		return true
	default:
		d.metrics.RecordEventDropped(string(event.Type))
		log.Warn().
			Str("draft_id", event.DraftID).
			Str("event_type", string(event.Type)).
			Msg("event queue full - dropping domain event")
		return false
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("event dispatcher already running")
	}
	d.running = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx)

	log.Info().
		Int("handlers", len(d.handlers)).
		Int("buffer_size", d.config.BufferSize).
		Msg("event dispatcher started")
	return nil
}

// Running reports whether Start was called without a matching Stop.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Pending is the number of queued events not yet delivered.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Stop delivers whatever is already queued and then returns.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("event dispatcher not running")
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopChan)
	d.wg.Wait()

	log.Info().Msg("event dispatcher stopped")
	return nil
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.queue:
			d.dispatch(ctx, event)
		case <-d.stopChan:
			for {
				select {
				case event := <-d.queue:
					d.dispatch(ctx, event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, event DomainEvent) {
	start := time.Now()
	success := true
	for _, h := range d.handlers {
		if err := d.deliverWithRetry(ctx, h, event); err != nil {
			success = false
			log.Error().Err(err).
				Str("event_id", event.ID).
				Str("draft_id", event.DraftID).
				Str("event_type", string(event.Type)).
				Msg("failed to deliver domain event")
		}
	}
	d.metrics.RecordEventProcessed(string(event.Type), success, time.Since(start))
}

func (d *Dispatcher) deliverWithRetry(ctx context.Context, h Handler, event DomainEvent) error {
	var lastErr error

	for attempt := 0; attempt <= d.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.config.RetryDelay * time.Duration(attempt)):
			}
		}

		err := h.Handle(ctx, event)
		d.metrics.RecordPublishAttempt(string(event.Type), attempt+1, err == nil)
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn().Err(err).
			Str("event_id", event.ID).
			Int("attempt", attempt+1).
			Msg("failed to deliver event, retrying")
	}

	return fmt.Errorf("failed after %d attempts: %w", d.config.MaxRetries+1, lastErr)
}
