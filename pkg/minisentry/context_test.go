package minisentry

import (
	"context"
	"testing"
)

func TestClientRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := WithClient(context.Background(), client)

	got, ok := ClientFromContext(ctx)

	if !ok {
		t.Error("ClientFromContext returned ok=false, want ok=true")
	}
	if got != client {
		t.Error("ClientFromContext returned a different client")
	}
}

func TestClientFromContext_NotSet(t *testing.T) {
	got, ok := ClientFromContext(context.Background())

	if ok {
		t.Error("ClientFromContext returned ok=true for empty context, want ok=false")
	}
	if got != nil {
		t.Errorf("ClientFromContext = %v, want nil", got)
	}
}

func TestClientFromContext_NilClient(t *testing.T) {
	// A nil client should be treated as "not set".
	ctx := WithClient(context.Background(), nil)

	_, ok := ClientFromContext(ctx)

	if ok {
		t.Error("ClientFromContext returned ok=true for nil client, want ok=false")
	}
}

func TestClientPropagation_ChainedContexts(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := WithClient(context.Background(), client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	got, ok := ClientFromContext(ctx)
	if !ok || got != client {
		t.Error("client not propagated through context chain")
	}
}
