// errors.go defines the failure kinds capture operations report.

package minisentry

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when a capture is attempted through a
	// client that has no key or project. Nothing is built or sent.
	ErrNotConfigured = errors.New("minisentry: client is not configured")

	// ErrEmptyMessage is returned when a capture or breadcrumb is
	// attempted with an empty message.
	ErrEmptyMessage = errors.New("minisentry: message is empty")

	// ErrEncode is returned when the event document fails serialization
	// or validation. The envelope is never transmitted in that case.
	ErrEncode = errors.New("minisentry: event document failed to encode")
)

// DeliveryError reports a failed exchange with the collector.
type DeliveryError struct {
	// StatusCode is the collector's non-2xx response status. Zero when
	// the request never completed.
	StatusCode int

	// Err is the underlying transport failure. Nil when the collector
	// responded but rejected the envelope.
	Err error
}

// Error describes the failure, preferring the transport error when the
// request never reached the collector.
func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("minisentry: envelope delivery failed: %v", e.Err)
	}
	return fmt.Sprintf("minisentry: collector rejected envelope with status %d", e.StatusCode)
}

// Unwrap exposes the underlying transport failure to errors.Is and
// errors.As.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}
