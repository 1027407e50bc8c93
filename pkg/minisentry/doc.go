// Package minisentry is a small client for Sentry-compatible collectors.
//
// It captures application events with a breadcrumb trail and host context,
// encodes them into single-event envelopes, and delivers each one with a
// single HTTP POST. The surface is deliberately small: breadcrumbs in,
// one envelope out, no retries and no background state beyond the trail.
//
// # Core Components
//
// The library is organized around these concepts:
//
//   - Client: Holds the project configuration and the breadcrumb trail,
//     and builds one complete Event per capture
//   - Envelope: The framed wire form, two header lines plus the compact
//     event document with an exact byte length
//   - Transport: Destination for envelopes (HTTP by default; writer,
//     multi, async, and noop variants live under transports/)
//   - Scrubber: Redacts secrets and PII from messages and the extra block
//     before anything leaves the process
//
// # Quick Start
//
//	client, err := minisentry.New(key, project)
//	if err != nil {
//	    // key or project missing
//	}
//	defer client.Close()
//
//	_ = client.AddBreadcrumb("cache warmed", "startup")
//	id, err := client.CaptureEvent(ctx, "listener crashed", minisentry.LevelError)
//
// To report panics:
//
//	defer minisentry.Recover(ctx, client)
//
// # Design Principles
//
//   - Captures are synchronous and at most once: a failed delivery is
//     reported to the caller and never retried (wrap the transport with
//     transports/async to decouple)
//   - The breadcrumb trail is consumed by the capture that builds the
//     event, successful or not; only validation failures leave it intact
//   - Reporting hooks never take the host down: Recover swallows delivery
//     errors and returns the recovered value instead of re-panicking
package minisentry
