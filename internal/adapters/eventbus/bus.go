package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"titleboost/internal/core/domain"
	"titleboost/internal/core/ports"
)

// ErrClosed is returned by Publish after Shutdown has been called.
var ErrClosed = errors.New("event bus is shut down")

// Bus is an in-process, at-most-once event bus.
//
// Events that share a job id are delivered one at a time, in publish order, by a
// single goroutine (the job's lane). Lanes of different jobs run concurrently and
// a lane exits as soon as its queue is empty.
type Bus struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger

	mu       sync.Mutex
	handlers map[domain.Topic][]ports.Handler
	lanes    map[string]*lane
	closed   bool
	wg       sync.WaitGroup
}

type lane struct {
	queue []domain.Event
}

// New creates a Bus. Handlers receive a context derived from ctx.
func New(ctx context.Context, logger *log.Logger) *Bus {
	busCtx, cancel := context.WithCancel(ctx)
	return &Bus{
		ctx:      busCtx,
		cancel:   cancel,
		logger:   logger,
		handlers: make(map[domain.Topic][]ports.Handler),
		lanes:    make(map[string]*lane),
	}
}

// Subscribe registers h for topic. Every handler of a topic sees every event.
func (b *Bus) Subscribe(topic domain.Topic, h ports.Handler) {
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], h)
	b.mu.Unlock()
}

// Publish queues ev on its job's lane, starting the lane if it is idle.
func (b *Bus) Publish(_ context.Context, ev domain.Event) error {
	if ev == nil {
		return fmt.Errorf("%w: nil event", domain.ErrMalformedEvent)
	}
	jobID := domain.EnvelopeOf(ev).JobID
	if jobID == "" {
		b.logger.Printf("[BUS] dropping %s event without job id", ev.Topic())
		return fmt.Errorf("%w: %s: missing jobId", domain.ErrMalformedEvent, ev.Topic())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// A running lane keeps accepting its own job's events during shutdown so
	// in-flight jobs can finish; only new jobs are refused.
	if l, ok := b.lanes[jobID]; ok {
		l.queue = append(l.queue, ev)
		return nil
	}
	if b.closed {
		return ErrClosed
	}

	l := &lane{queue: []domain.Event{ev}}
	b.lanes[jobID] = l
	b.wg.Add(1)
	go b.drain(jobID, l)
	return nil
}

func (b *Bus) drain(jobID string, l *lane) {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		if len(l.queue) == 0 {
			delete(b.lanes, jobID)
			b.mu.Unlock()
			return
		}
		ev := l.queue[0]
		l.queue = l.queue[1:]
		handlers := append([]ports.Handler(nil), b.handlers[ev.Topic()]...)
		b.mu.Unlock()

		if len(handlers) == 0 {
			b.logger.Printf("[BUS] [JOB %s] no subscribers for %s", jobID, ev.Topic())
			continue
		}
		for _, h := range handlers {
			b.dispatch(jobID, h, ev)
		}
	}
}

func (b *Bus) dispatch(jobID string, h ports.Handler, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Printf("[BUS] [JOB %s] handler for %s panicked: %v", jobID, ev.Topic(), r)
		}
	}()
	if err := h(b.ctx, ev); err != nil {
		b.logger.Printf("[BUS] [JOB %s] handler for %s returned error: %v", jobID, ev.Topic(), err)
	}
}

// Shutdown stops accepting events for new jobs and waits up to timeout for
// running lanes to finish. Lanes still running after the timeout see their context cancelled.
func (b *Bus) Shutdown(timeout time.Duration) bool {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	doneCh := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(doneCh)
	}()

	defer b.cancel()
	select {
	case <-doneCh:
		b.logger.Printf("[BUS] all lanes drained")
		return true
	case <-time.After(timeout):
		b.logger.Printf("[BUS] shutdown timed out after %v, some jobs are still running", timeout)
		return false
	}
}
