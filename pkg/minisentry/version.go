// version.go pins the identifiers this client reports to the collector.

package minisentry

const (
	// sdkName and sdkVersion appear in the event's sdk block and in the
	// sentry_client field of the auth header.
	sdkName    = "minisentry.go"
	sdkVersion = "0.3.1"

	// platformName is the platform every event reports.
	platformName = "go"

	// protocolVersion is the auth protocol version spoken in the
	// X-Sentry-Auth header.
	protocolVersion = 7

	// envelopeContentType is the media type of an encoded envelope.
	envelopeContentType = "application/x-sentry-envelope"

	// DefaultHost receives envelopes when no host is configured.
	DefaultHost = "sentry.io"

	// DefaultEnvironment tags events when no environment is configured.
	DefaultEnvironment = "production"

	// defaultEnvPrefix marks environment variables that configure this
	// client; they are excluded from the extra block so credentials never
	// report themselves.
	defaultEnvPrefix = "MINISENTRY_"

	// defaultCategory is assigned to breadcrumbs recorded without one.
	defaultCategory = "log"
)
