// client.go provides the central Client: session configuration, the
// breadcrumb buffer, and the capture operations that tie builder,
// envelope, and transport together.

package minisentry

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	host               string
	environment        string
	release            string
	insecureSkipVerify bool
	enableCompression  bool
	transport          Transport
	scrubber           *Scrubber
	logger             zerolog.Logger
}

// WithHost sets the collector host (default: DefaultHost). No scheme; the
// transport always speaks HTTPS.
func WithHost(host string) Option {
	return func(c *clientConfig) {
		if host != "" {
			c.host = host
		}
	}
}

// WithEnvironment sets the environment tag (default: DefaultEnvironment).
func WithEnvironment(environment string) Option {
	return func(c *clientConfig) {
		if environment != "" {
			c.environment = environment
		}
	}
}

// WithRelease overrides release detection. Without it the revision
// recorded in the binary's build info is used, then "unknown".
func WithRelease(release string) Option {
	return func(c *clientConfig) {
		c.release = release
	}
}

// WithInsecureSkipVerify disables TLS certificate verification on the
// default transport. Never enable against a production collector.
func WithInsecureSkipVerify() Option {
	return func(c *clientConfig) {
		c.insecureSkipVerify = true
	}
}

// WithCompression gzips envelope bodies on the default transport.
func WithCompression() Option {
	return func(c *clientConfig) {
		c.enableCompression = true
	}
}

// WithTransport sets the transport for the client, replacing the default
// HTTP transport.
func WithTransport(transport Transport) Option {
	return func(c *clientConfig) {
		c.transport = transport
	}
}

// WithScrubber configures the client with a custom scrubber configuration.
func WithScrubber(cfg ScrubberConfig) Option {
	return func(c *clientConfig) {
		c.scrubber = NewScrubber(cfg)
	}
}

// WithDefaultScrubbing enables scrubbing with production-safe defaults.
func WithDefaultScrubbing() Option {
	return func(c *clientConfig) {
		c.scrubber = NewScrubber(DefaultScrubberConfig())
	}
}

// WithLogger sets the diagnostic logger. The client logs its own activity
// only; event content goes through the transport, never the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// Client captures events for one configured project. Configuration is
// fixed at construction; the breadcrumb buffer is the only mutable state
// and is safe for concurrent use. Independent clients share nothing, so
// reconfiguring means constructing a new Client.
type Client struct {
	key         string
	project     string
	host        string
	environment string
	release     string

	transport Transport
	scrubber  *Scrubber
	log       zerolog.Logger

	mu          sync.Mutex
	breadcrumbs []Breadcrumb
}

// New creates a Client for the given project. Key and project must both
// be non-empty: without them no event could ever be delivered, so
// construction fails with ErrNotConfigured instead of letting every later
// capture fail.
func New(key, project string, opts ...Option) (*Client, error) {
	if key == "" || project == "" {
		return nil, ErrNotConfigured
	}

	cfg := &clientConfig{
		host:        DefaultHost,
		environment: DefaultEnvironment,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.transport == nil {
		cfg.transport = NewHTTPTransport(HTTPTransportConfig{
			Key:                key,
			Project:            project,
			Host:               cfg.host,
			InsecureSkipVerify: cfg.insecureSkipVerify,
			EnableCompression:  cfg.enableCompression,
		})
	}

	return &Client{
		key:         key,
		project:     project,
		host:        cfg.host,
		environment: cfg.environment,
		release:     currentRelease(cfg.release),
		transport:   cfg.transport,
		scrubber:    cfg.scrubber,
		log:         cfg.logger,
	}, nil
}

// configured reports whether the client can deliver events. A nil or
// zero-value Client is not configured.
func (c *Client) configured() bool {
	return c != nil && c.key != "" && c.project != "" && c.transport != nil
}

// AddBreadcrumb appends a timestamped entry to the trail consumed by the
// next capture. An empty category defaults to "log"; an empty message is
// rejected with ErrEmptyMessage and records nothing.
func (c *Client) AddBreadcrumb(message, category string) error {
	if !c.configured() {
		return ErrNotConfigured
	}
	if message == "" {
		return ErrEmptyMessage
	}
	if category == "" {
		category = defaultCategory
	}

	crumb := Breadcrumb{
		Timestamp: Timestamp(time.Now()),
		Message:   message,
		Category:  category,
	}

	c.mu.Lock()
	c.breadcrumbs = append(c.breadcrumbs, crumb)
	c.mu.Unlock()
	return nil
}

// takeBreadcrumbs snapshots the trail and resets the buffer to its
// never-written state in one critical section. A nil result means no
// breadcrumb was ever recorded and the event must omit the block
// entirely; recorded-then-consumed is indistinguishable from
// never-recorded on the next capture.
func (c *Client) takeBreadcrumbs() []Breadcrumb {
	c.mu.Lock()
	crumbs := c.breadcrumbs
	c.breadcrumbs = nil
	c.mu.Unlock()
	return crumbs
}

// CaptureEvent builds one event from the message, level, and accumulated
// state, and delivers it as a single envelope. The breadcrumb trail is
// consumed by the build: it is gone whether or not delivery succeeds.
// Returns the event's identifier once the collector accepted it.
//
// Validation runs before the build, so a rejected capture leaves the
// breadcrumb trail intact for the next one.
func (c *Client) CaptureEvent(ctx context.Context, message string, level Level) (string, error) {
	if !c.configured() {
		return "", ErrNotConfigured
	}
	if message == "" {
		return "", ErrEmptyMessage
	}

	event := c.buildEvent(message, level)

	env, err := NewEnvelope(event)
	if err != nil {
		c.log.Error().Str("event_id", event.EventID).Err(err).Msg("envelope encoding failed")
		return "", err
	}

	c.log.Debug().
		Str("event_id", event.EventID).
		Str("level", string(event.Level)).
		Str("host", c.host).
		Int("bytes", env.Len()).
		Msg("sending envelope")

	if err := c.transport.SendEnvelope(ctx, env); err != nil {
		c.log.Warn().Str("event_id", event.EventID).Err(err).Msg("envelope delivery failed")
		return "", err
	}
	return event.EventID, nil
}

// CaptureMessage reports a message-shaped occurrence. The title is
// accepted for call-site symmetry but is not part of the wire document;
// only the message is transmitted.
func (c *Client) CaptureMessage(ctx context.Context, title, message string, level Level) (string, error) {
	return c.CaptureEvent(ctx, message, level)
}

// CaptureException reports a failure-shaped occurrence. Like
// CaptureMessage it accepts and discards the title; the two differ only
// in the intent they express at the call site.
func (c *Client) CaptureException(ctx context.Context, title, message string, level Level) (string, error) {
	return c.CaptureEvent(ctx, message, level)
}

// buildEvent assembles the complete event document. Breadcrumbs, host
// facts, and the environment are snapshotted here; scrubbing, when
// configured, runs on the snapshot before it is frozen into the event.
func (c *Client) buildEvent(message string, level Level) *Event {
	if level == "" {
		level = LevelInfo
	}

	crumbs := c.takeBreadcrumbs()
	extra := extraFromEnviron(defaultEnvPrefix)

	if c.scrubber != nil {
		message = c.scrubber.ScrubMessage(message)
		extra = c.scrubber.ScrubExtra(extra)
		for i := range crumbs {
			crumbs[i].Message = c.scrubber.ScrubMessage(crumbs[i].Message)
		}
	}

	event := &Event{
		EventID:     newEventID(),
		Platform:    platformName,
		LogEntry:    LogEntry{Message: message},
		Timestamp:   Timestamp(time.Now()),
		ServerName:  serverName(),
		Environment: c.environment,
		Level:       level,
		Contexts:    hostContexts(),
		Extra:       extra,
		Release:     c.release,
		SDK:         SDKInfo{Name: sdkName, Version: sdkVersion},
	}
	if crumbs != nil {
		event.Breadcrumbs = &Breadcrumbs{Values: crumbs}
	}
	return event
}

// Flush delegates to the transport.
func (c *Client) Flush(ctx context.Context) error {
	if !c.configured() {
		return ErrNotConfigured
	}
	return c.transport.Flush(ctx)
}

// Close delegates to the transport.
func (c *Client) Close() error {
	if !c.configured() {
		return ErrNotConfigured
	}
	return c.transport.Close()
}

// newEventID returns 32 lowercase hex characters from a random UUID.
func newEventID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
