// transport.go defines the Transport interface for envelope delivery and
// the HTTP transport that speaks to a collector.

package minisentry

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/klauspost/compress/gzip"
)

// Transport is the destination for encoded envelopes.
// Implementations must be safe for concurrent use.
type Transport interface {
	// SendEnvelope delivers one envelope. Delivery is at most once:
	// implementations must not retry a failed send.
	SendEnvelope(ctx context.Context, env *Envelope) error

	// Flush ensures any buffered envelopes are delivered.
	// For synchronous transports, this may be a no-op.
	Flush(ctx context.Context) error

	// Close releases resources held by the transport.
	// After Close is called, SendEnvelope should return errors.
	Close() error
}

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	// Key is the public key used in the X-Sentry-Auth header.
	Key string

	// Project is the numeric project identifier in the ingestion path.
	Project string

	// Host is the collector host, without scheme. May carry a port.
	Host string

	// InsecureSkipVerify accepts any TLS certificate the host presents.
	// Only for collectors behind self-signed certificates.
	InsecureSkipVerify bool

	// EnableCompression gzips envelope bodies and sets Content-Encoding.
	EnableCompression bool

	// HTTPClient overrides the underlying client. When set, the caller
	// owns TLS configuration and InsecureSkipVerify is ignored.
	HTTPClient *http.Client
}

// HTTPTransport posts envelopes to https://{host}/api/{project}/envelope/.
// Each envelope is a single POST; nothing is retried.
type HTTPTransport struct {
	client   *http.Client
	url      string
	auth     string
	compress bool
}

// NewHTTPTransport creates an HTTP transport for the given collector.
func NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
		if cfg.InsecureSkipVerify {
			base := http.DefaultTransport.(*http.Transport).Clone()
			base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			client.Transport = base
		}
	}

	return &HTTPTransport{
		client: client,
		url:    fmt.Sprintf("https://%s/api/%s/envelope/", host, cfg.Project),
		auth: fmt.Sprintf("Sentry sentry_version=%d, sentry_key=%s, sentry_client=%s/%s",
			protocolVersion, cfg.Key, sdkName, sdkVersion),
		compress: cfg.EnableCompression,
	}
}

// SendEnvelope performs the POST. A non-2xx response or a request failure
// is reported as *DeliveryError. The response body is drained and
// discarded so connections can be reused.
func (t *HTTPTransport) SendEnvelope(ctx context.Context, env *Envelope) error {
	body, encoding, err := t.encodeBody(env.Bytes())
	if err != nil {
		return fmt.Errorf("minisentry: compress envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("minisentry: build request: %w", err)
	}
	req.Header.Set("Content-Type", envelopeContentType)
	req.Header.Set("X-Sentry-Auth", t.auth)
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DeliveryError{StatusCode: resp.StatusCode}
	}
	return nil
}

// encodeBody gzips the envelope when compression is enabled.
func (t *HTTPTransport) encodeBody(raw []byte) ([]byte, string, error) {
	if !t.compress {
		return raw, "", nil
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, "", err
	}
	if err := gz.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "gzip", nil
}

// Flush is a no-op: every envelope is delivered synchronously by
// SendEnvelope.
func (t *HTTPTransport) Flush(ctx context.Context) error {
	return nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
