package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQueueFull       = errors.New("event queue is full")
	ErrPublisherClosed = errors.New("event publisher is closed")
)

// AsyncPublisher hands events to a single background worker so callers
// never wait on a broker. Events are delivered in Publish order.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration
	logger  *zap.Logger

	queue   chan Event
	pending sync.WaitGroup
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsyncPublisher starts the worker. Each delivery to next gets its own
// timeout, detached from the caller's context.
func NewAsyncPublisher(next Publisher, queueSize int, timeout time.Duration, logger *zap.Logger) *AsyncPublisher {
	if queueSize < 1 {
		queueSize = 1
	}
	p := &AsyncPublisher{
		next:    next,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan Event, queueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.next.Publish(ctx, event); err != nil {
			p.logger.Warn("failed to deliver event",
				zap.String("type", event.Type),
				zap.String("key", event.Key),
				zap.Error(err),
			)
		}
		cancel()
		p.pending.Done()
	}
}

// Publish enqueues event and returns immediately. It fails with ErrQueueFull
// when the worker is too far behind.
func (p *AsyncPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	p.pending.Add(1)
	select {
	case p.queue <- event:
		return nil
	default:
		p.pending.Done()
		return ErrQueueFull
	}
}

// Flush blocks until every queued event has been handled.
func (p *AsyncPublisher) Flush() {
	p.pending.Wait()
}

// Close stops accepting events, drains the queue and closes next.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.next.Close()
}
