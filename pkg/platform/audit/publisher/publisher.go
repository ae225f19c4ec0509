package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	dErrors "crpstore/pkg/domain-errors"
	audit "crpstore/pkg/platform/audit"
)

// Publisher stamps audit events and hands them to a sink, either inline or
// through a bounded buffer drained by one goroutine.
type Publisher struct {
	sink   audit.Sink
	events chan audit.Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool
	now    func() time.Time
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(sink audit.Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{sink: sink, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.sink.Append(context.Background(), event); err != nil {
			p.logger.Error("failed to deliver audit event",
				"error", err,
				"action", event.Action,
				"subject", event.Subject,
			)
		}
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if p.async {
		select {
		case p.events <- event:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
			p.logger.Warn("audit buffer full, event dropped",
				"action", event.Action,
				"subject", event.Subject,
			)
			return dErrors.New(dErrors.CodeInternal, "audit buffer full")
		}
	}
	return p.sink.Append(ctx, event)
}
