// recover.go provides the panic hooks that turn an uncaught failure into
// a reported event.

package minisentry

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Recover captures a panic, reports it as a fatal event naming the
// failing location, and returns the recovered value without re-panicking.
//
// Use in defer, directly:
//
//	func worker(ctx context.Context, client *minisentry.Client) {
//	    defer minisentry.Recover(ctx, client)
//	    // code that might panic
//	}
//
// Recover calls recover internally, so it only works when it is itself
// the deferred function. To combine panic reporting with other cleanup,
// call recover in your own deferred function and pass the value to
// CapturePanic.
//
// Delivery failures are swallowed: a reporting hook must never take the
// host down. A nil client still stops the panic.
func Recover(ctx context.Context, client *Client) any {
	r := recover()
	if r == nil {
		return nil
	}
	_, _ = CapturePanic(ctx, client, r)
	return r
}

// CapturePanic reports an already-recovered panic value as a fatal event.
// The message names the frame that failed, in the form
// "panic at function (file:line): value". Returns the event identifier
// when delivery succeeded.
//
// Call it from the deferred function that recovered; the failing frame is
// located relative to that call. Plain code can use Recover instead.
func CapturePanic(ctx context.Context, client *Client, recovered any) (string, error) {
	if recovered == nil {
		return "", nil
	}
	if client == nil {
		return "", ErrNotConfigured
	}

	message := fmt.Sprintf("panic at %s: %s", panicSite(), formatRecovered(recovered))

	id, err := client.CaptureEvent(ctx, message, LevelFatal)
	if err != nil {
		client.log.Warn().Err(err).Msg("panic report dropped")
		return "", err
	}
	return id, nil
}

// formatRecovered formats a recovered panic value as a string.
func formatRecovered(recovered any) string {
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", recovered)
}

// panicSite names the frame that panicked, as "function (file:line)".
// The stack above it is fixed: panicSite, CapturePanic, the deferred
// function that recovered, then the runtime's panic machinery, then the
// failing frame. The first three are skipped by count, the runtime's
// frames by name, and the next frame is the site.
func panicSite() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	if n == 0 {
		return "unknown"
	}

	frames := runtime.CallersFrames(pcs[:n])
	deferredSkipped := false
	for {
		frame, more := frames.Next()
		switch {
		case !deferredSkipped:
			deferredSkipped = true
		case frame.Function == "" || strings.HasPrefix(frame.Function, "runtime."):
			// panic machinery
		default:
			return fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line)
		}
		if !more {
			return "unknown"
		}
	}
}
