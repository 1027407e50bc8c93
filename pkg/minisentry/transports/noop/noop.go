// Package noop provides a transport that discards all envelopes.
// Useful for testing and for disabling event delivery.
package noop

import (
	"context"

	"github.com/m8522s/minisentry/pkg/minisentry"
)

// noopTransport discards all envelopes.
type noopTransport struct{}

// NewTransport creates a transport that discards all envelopes.
// All methods return nil and perform no operations.
func NewTransport() minisentry.Transport {
	return &noopTransport{}
}

// SendEnvelope discards the envelope and returns nil.
func (t *noopTransport) SendEnvelope(ctx context.Context, env *minisentry.Envelope) error {
	return nil
}

// Flush is a no-op and returns nil.
func (t *noopTransport) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op and returns nil.
func (t *noopTransport) Close() error {
	return nil
}
