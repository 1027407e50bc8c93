// Package multi provides a transport that fans out to multiple transports.
// All transports receive all envelopes; errors are aggregated.
package multi

import (
	"context"
	"errors"

	"github.com/m8522s/minisentry/pkg/minisentry"
)

// multiTransport fans out to multiple transports.
type multiTransport struct {
	transports []minisentry.Transport
}

// NewTransport creates a transport that delivers to every given transport.
// All transports receive all envelopes. Errors are aggregated via
// errors.Join, so a failing destination never starves the others.
func NewTransport(transports ...minisentry.Transport) minisentry.Transport {
	return &multiTransport{
		transports: transports,
	}
}

// SendEnvelope sends the envelope to all transports, collecting any
// errors. All transports are called even if some return errors.
func (t *multiTransport) SendEnvelope(ctx context.Context, env *minisentry.Envelope) error {
	var errs []error
	for _, transport := range t.transports {
		if err := transport.SendEnvelope(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush calls Flush on all transports, collecting any errors.
func (t *multiTransport) Flush(ctx context.Context) error {
	var errs []error
	for _, transport := range t.transports {
		if err := transport.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on all transports, collecting any errors.
func (t *multiTransport) Close() error {
	var errs []error
	for _, transport := range t.transports {
		if err := transport.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
