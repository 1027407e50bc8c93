// Package async provides a transport wrapper with a bounded queue so
// captures return without waiting on the network. Envelopes are delivered
// in the background; the oldest is dropped when the queue is full.
package async

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m8522s/minisentry/pkg/minisentry"
)

// Option configures the async transport.
type Option func(*config)

type config struct {
	queueSize int
	onDropped func(count int)
}

// WithQueueSize sets the maximum number of queued envelopes (default: 100).
func WithQueueSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithOnDropped sets a callback invoked when envelopes are dropped due to
// queue overflow.
func WithOnDropped(fn func(count int)) Option {
	return func(c *config) {
		c.onDropped = fn
	}
}

// asyncTransport wraps a transport with a bounded queue.
type asyncTransport struct {
	inner     minisentry.Transport
	queue     chan *minisentry.Envelope
	done      chan struct{}
	closeOnce sync.Once
	closeMu   sync.Mutex
	closed    bool
	wg        sync.WaitGroup
	onDropped func(count int)
}

// NewTransport wraps a transport with a bounded queue for async delivery.
// SendEnvelope returns immediately; envelopes are delivered in the
// background. When the queue is full, the oldest envelope is dropped to
// make room. Dropped envelopes are gone: delivery stays at most once.
func NewTransport(inner minisentry.Transport, opts ...Option) minisentry.Transport {
	cfg := &config{
		queueSize: 100,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	t := &asyncTransport{
		inner:     inner,
		queue:     make(chan *minisentry.Envelope, cfg.queueSize),
		done:      make(chan struct{}),
		onDropped: cfg.onDropped,
	}

	t.wg.Add(1)
	go t.processLoop()

	return t
}

// processLoop drains the queue and delivers to the inner transport.
func (t *asyncTransport) processLoop() {
	defer t.wg.Done()
	for {
		select {
		case env, ok := <-t.queue:
			if !ok {
				return
			}
			// Ignore errors from the inner transport (fire and forget)
			_ = t.inner.SendEnvelope(context.Background(), env)
		case <-t.done:
			// Drain remaining envelopes
			for {
				select {
				case env, ok := <-t.queue:
					if !ok {
						return
					}
					_ = t.inner.SendEnvelope(context.Background(), env)
				default:
					return
				}
			}
		}
	}
}

// SendEnvelope enqueues an envelope for background delivery.
// Returns immediately. If the queue is full, drops the oldest envelope.
func (t *asyncTransport) SendEnvelope(ctx context.Context, env *minisentry.Envelope) error {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return errors.New("async transport is closed")
	}
	t.closeMu.Unlock()

	select {
	case t.queue <- env:
		return nil
	default:
		t.dropOldestAndEnqueue(env)
		return nil
	}
}

// dropOldestAndEnqueue drops the oldest envelope and enqueues the new one.
func (t *asyncTransport) dropOldestAndEnqueue(env *minisentry.Envelope) {
	select {
	case <-t.queue:
		if t.onDropped != nil {
			t.onDropped(1)
		}
	default:
		// Queue was emptied by the processor, nothing to drop
	}

	select {
	case t.queue <- env:
	default:
		// Still full, drop the new envelope instead
		if t.onDropped != nil {
			t.onDropped(1)
		}
	}
}

// Flush blocks until all queued envelopes are delivered, then flushes the
// inner transport.
func (t *asyncTransport) Flush(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if len(t.queue) == 0 {
				// Give the processor a moment to finish the last envelope
				time.Sleep(10 * time.Millisecond)
				return t.inner.Flush(ctx)
			}
		}
	}
}

// Close stops the background processor, drains the queue, and closes the
// inner transport.
func (t *asyncTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeMu.Lock()
		t.closed = true
		t.closeMu.Unlock()

		close(t.done)
		t.wg.Wait()
		close(t.queue)
	})

	return t.inner.Close()
}
