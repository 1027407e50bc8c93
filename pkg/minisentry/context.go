// context.go propagates a Client through context.Context so failure hooks
// inside host frameworks can reach it without explicit plumbing.

package minisentry

import "context"

// Context key type (unexported to avoid collisions)
type clientKey struct{}

// WithClient returns a context with the client attached.
func WithClient(ctx context.Context, client *Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFromContext extracts the client from context.
// Returns nil and false if no client is attached.
func ClientFromContext(ctx context.Context) (*Client, bool) {
	client, ok := ctx.Value(clientKey{}).(*Client)
	return client, ok && client != nil
}
