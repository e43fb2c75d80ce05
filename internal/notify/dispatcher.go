package notify

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"shopfront/internal/metrics"
	"shopfront/internal/model"

	"github.com/rs/zerolog"
)

// DispatcherConfig tunes the background delivery pool.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	SendTimeout time.Duration
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

type job struct {
	kind  Kind
	order model.Order
}

// Dispatcher delivers notifications asynchronously from a bounded queue.
// Delivery failures are logged and counted, never returned to callers.
type Dispatcher struct {
	cfg       DispatcherConfig
	templates *Templates
	sender    Sender
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	queue    chan job
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher starts cfg.Workers delivery goroutines.
func NewDispatcher(cfg DispatcherConfig, templates *Templates, sender Sender, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		cfg:       cfg,
		templates: templates,
		sender:    sender,
		metrics:   m,
		logger:    logger.With().Str("component", "notify_dispatcher").Logger(),
		queue:     make(chan job, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	d.logger.Info().
		Int("workers", cfg.Workers).
		Int("queue_size", cfg.QueueSize).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("notification dispatcher started")

	return d
}

// Notify queues a notification. It never blocks: when the queue is full or
// the dispatcher is closed the notification is dropped and logged.
func (d *Dispatcher) Notify(_ context.Context, kind Kind, order *model.Order) {
	if order == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(kind, order, "dispatcher closed")
		return
	}

	select {
	case d.queue <- job{kind: kind, order: *order}:
		d.logger.Debug().
			Str("kind", string(kind)).
			Str("order_id", order.ID.String()).
			Msg("notification enqueued")
	default:
		d.drop(kind, order, "queue full")
	}
}

func (d *Dispatcher) drop(kind Kind, order *model.Order, reason string) {
	d.metrics.Notification(string(kind), "dropped")
	d.logger.Warn().
		Str("kind", string(kind)).
		Str("order_id", order.ID.String()).
		Str("reason", reason).
		Msg("notification dropped")
}

// Close stops accepting notifications and waits for queued ones to be
// delivered or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info().Msg("notification dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn().Int("pending", len(d.queue)).Msg("notification dispatcher closed before draining")
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	logger := d.logger.With().
		Str("kind", string(j.kind)).
		Str("order_id", j.order.ID.String()).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			d.metrics.Notification(string(j.kind), "failed")
			logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("notification panicked")
		}
	}()

	msg, err := d.templates.Render(j.kind, &j.order)
	if err != nil {
		d.metrics.Notification(string(j.kind), "failed")
		logger.Error().Err(err).Msg("failed to render notification")
		return
	}

	if msg.To == "" {
		d.metrics.Notification(string(j.kind), "failed")
		logger.Warn().Msg("notification has no recipient")
		return
	}

	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		err = d.send(msg)
		if err == nil {
			d.metrics.Notification(string(j.kind), "sent")
			logger.Info().Int("attempt", attempt).Msg("notification sent")
			return
		}

		logger.Warn().Err(err).Int("attempt", attempt).Msg("notification attempt failed")
		if attempt < d.cfg.MaxAttempts {
			time.Sleep(time.Duration(attempt) * d.cfg.Backoff)
		}
	}

	d.metrics.Notification(string(j.kind), "failed")
	logger.Error().Err(err).Int("attempts", d.cfg.MaxAttempts).Msg("notification failed")
}

func (d *Dispatcher) send(msg Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Kind, err)
	}
	return nil
}
