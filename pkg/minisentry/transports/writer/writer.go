// Package writer provides a transport that writes envelopes to an
// io.Writer in their exact wire form. Useful for development, dry runs,
// and inspecting what would be sent.
package writer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/m8522s/minisentry/pkg/minisentry"
)

// writerTransport serializes envelopes to a single writer.
type writerTransport struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTransport creates a transport that writes each envelope to w,
// terminated by a newline so consecutive envelopes stay readable. A nil
// writer defaults to stderr.
func NewTransport(w io.Writer) minisentry.Transport {
	if w == nil {
		w = os.Stderr
	}
	return &writerTransport{w: w}
}

// SendEnvelope writes the envelope body followed by a newline. The
// newline is a display separator only; it is not part of the envelope.
func (t *writerTransport) SendEnvelope(ctx context.Context, env *minisentry.Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.w.Write(env.Bytes()); err != nil {
		return fmt.Errorf("writer: %w", err)
	}
	if _, err := io.WriteString(t.w, "\n"); err != nil {
		return fmt.Errorf("writer: %w", err)
	}
	return nil
}

// Flush is a no-op for the writer transport.
func (t *writerTransport) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for the writer transport.
func (t *writerTransport) Close() error {
	return nil
}
