package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
	"github.com/okojic12722rn/banka-provisioning/pkg/logger"
)

var _ provisioning.EventPublisher = (*AsyncPublisher)(nil)

var (
	ErrQueueFull = errors.New("events: cola llena, evento descartado")
	ErrClosed    = errors.New("events: publicador cerrado")
)

type queuedEvent struct {
	stream    string
	eventType string
	data      any
}

// AsyncPublisher encola los eventos y los publica desde una sola goroutine.
// Publish nunca espera a Redis: con la cola llena el evento se descarta.
type AsyncPublisher struct {
	next    provisioning.EventPublisher
	log     *logger.Logger
	timeout time.Duration
	queue   chan queuedEvent
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsyncPublisher arranca el worker. timeout limita cada publicación de next.
func NewAsyncPublisher(next provisioning.EventPublisher, size int, timeout time.Duration, log *logger.Logger) *AsyncPublisher {
	if size <= 0 {
		size = 1
	}
	p := &AsyncPublisher{
		next:    next,
		log:     log,
		timeout: timeout,
		queue:   make(chan queuedEvent, size),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish encola el evento. El ctx no se usa: la publicación real tiene su propio timeout.
func (p *AsyncPublisher) Publish(_ context.Context, stream, eventType string, data any) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- queuedEvent{stream: stream, eventType: eventType, data: data}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for ev := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.next.Publish(ctx, ev.stream, ev.eventType, ev.data); err != nil {
			p.log.Error().Err(err).Str("event", ev.eventType).Msg("publicar evento")
		}
		cancel()
	}
}

// Close deja de aceptar eventos y espera a que se publiquen los encolados o venza ctx.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
