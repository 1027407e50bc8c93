package minisentry

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
)

// testTransport captures envelopes for verification in tests.
type testTransport struct {
	mu        sync.Mutex
	envelopes []*Envelope
	sendErr   error
	flushes   int
	closes    int
}

func (t *testTransport) SendEnvelope(ctx context.Context, env *Envelope) error {
	if t.sendErr != nil {
		return t.sendErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.envelopes = append(t.envelopes, env)
	return nil
}

func (t *testTransport) Flush(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushes++
	return nil
}

func (t *testTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	return nil
}

func (t *testTransport) getEnvelopes() []*Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]*Envelope, len(t.envelopes))
	copy(result, t.envelopes)
	return result
}

// newTestClient builds a client wired to a fresh capture transport.
func newTestClient(t *testing.T, opts ...Option) (*Client, *testTransport) {
	t.Helper()
	transport := &testTransport{}
	opts = append([]Option{WithTransport(transport)}, opts...)
	client, err := New("testkey", "42", opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client, transport
}

// decodeDocument parses an envelope's event document into a generic map.
func decodeDocument(t *testing.T, env *Envelope) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(env.Document, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	return doc
}

var eventIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestNew_RequiresKeyAndProject(t *testing.T) {
	if _, err := New("", "42"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("New without key: got %v, want ErrNotConfigured", err)
	}
	if _, err := New("testkey", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("New without project: got %v, want ErrNotConfigured", err)
	}
	if _, err := New("", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("New without both: got %v, want ErrNotConfigured", err)
	}
}

func TestClient_CaptureEvent_GeneratesEventID(t *testing.T) {
	client, transport := newTestClient(t)

	id, err := client.CaptureEvent(context.Background(), "test error", LevelError)
	if err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}

	if !eventIDPattern.MatchString(id) {
		t.Errorf("event ID %q is not 32 lowercase hex chars", id)
	}

	envelopes := transport.getEnvelopes()
	if len(envelopes) != 1 {
		t.Fatalf("Expected 1 envelope, got %d", len(envelopes))
	}
	if envelopes[0].EventID != id {
		t.Errorf("envelope EventID = %q, want %q", envelopes[0].EventID, id)
	}

	doc := decodeDocument(t, envelopes[0])
	if doc["event_id"] != id {
		t.Errorf("document event_id = %v, want %q", doc["event_id"], id)
	}
}

func TestClient_CaptureEvent_UniqueEventIDs(t *testing.T) {
	client, _ := newTestClient(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, err := client.CaptureEvent(context.Background(), "test", LevelInfo)
		if err != nil {
			t.Fatalf("CaptureEvent returned error: %v", err)
		}
		if seen[id] {
			t.Fatalf("event ID %q repeated", id)
		}
		seen[id] = true
	}
}

func TestClient_CaptureEvent_DocumentShape(t *testing.T) {
	client, transport := newTestClient(t, WithEnvironment("staging"), WithRelease("abc123"))

	if _, err := client.CaptureEvent(context.Background(), "shape check", LevelWarning); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}

	doc := decodeDocument(t, transport.getEnvelopes()[0])

	if doc["platform"] != "go" {
		t.Errorf("platform = %v, want go", doc["platform"])
	}
	logentry, ok := doc["logentry"].(map[string]any)
	if !ok || logentry["message"] != "shape check" {
		t.Errorf("logentry = %v, want message %q", doc["logentry"], "shape check")
	}
	if doc["environment"] != "staging" {
		t.Errorf("environment = %v, want staging", doc["environment"])
	}
	if doc["level"] != "warning" {
		t.Errorf("level = %v, want warning", doc["level"])
	}
	if doc["release"] != "abc123" {
		t.Errorf("release = %v, want abc123", doc["release"])
	}

	ts, ok := doc["timestamp"].(string)
	if !ok {
		t.Fatalf("timestamp missing or not a string: %v", doc["timestamp"])
	}
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`).MatchString(ts) {
		t.Errorf("timestamp %q is not second-precision UTC", ts)
	}

	contexts, ok := doc["contexts"].(map[string]any)
	if !ok {
		t.Fatalf("contexts missing: %v", doc["contexts"])
	}
	device, ok := contexts["device"].(map[string]any)
	if !ok || device["type"] != "device" {
		t.Errorf("contexts.device = %v, want type device", contexts["device"])
	}
	osCtx, ok := contexts["os"].(map[string]any)
	if !ok || osCtx["type"] != "os" {
		t.Errorf("contexts.os = %v, want type os", contexts["os"])
	}

	if _, ok := doc["extra"].(map[string]any); !ok {
		t.Errorf("extra missing or not an object: %v", doc["extra"])
	}
	if _, present := doc["breadcrumbs"]; present {
		t.Error("breadcrumbs key present without any recorded breadcrumb")
	}

	sdk, ok := doc["sdk"].(map[string]any)
	if !ok {
		t.Fatalf("sdk missing: %v", doc["sdk"])
	}
	if sdk["name"] != sdkName || sdk["version"] != sdkVersion {
		t.Errorf("sdk = %v, want %s/%s", sdk, sdkName, sdkVersion)
	}
	if doc["server_name"] == nil {
		t.Error("server_name key missing")
	}
}

func TestClient_CaptureEvent_DefaultLevel(t *testing.T) {
	client, transport := newTestClient(t)

	if _, err := client.CaptureEvent(context.Background(), "no level", ""); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}

	doc := decodeDocument(t, transport.getEnvelopes()[0])
	if doc["level"] != "info" {
		t.Errorf("level = %v, want info", doc["level"])
	}
}

func TestClient_CaptureEvent_LevelPassthrough(t *testing.T) {
	// Levels are not validated; whatever the caller sends goes out.
	client, transport := newTestClient(t)

	if _, err := client.CaptureEvent(context.Background(), "odd level", Level("catastrophic")); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}

	doc := decodeDocument(t, transport.getEnvelopes()[0])
	if doc["level"] != "catastrophic" {
		t.Errorf("level = %v, want catastrophic", doc["level"])
	}
}

func TestClient_CaptureEvent_EmptyMessage(t *testing.T) {
	client, transport := newTestClient(t)

	if err := client.AddBreadcrumb("kept across rejection", ""); err != nil {
		t.Fatalf("AddBreadcrumb returned error: %v", err)
	}

	id, err := client.CaptureEvent(context.Background(), "", LevelError)
	if !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("CaptureEvent(\"\") = %v, want ErrEmptyMessage", err)
	}
	if id != "" {
		t.Errorf("rejected capture returned ID %q", id)
	}
	if len(transport.getEnvelopes()) != 0 {
		t.Fatal("rejected capture still sent an envelope")
	}

	// The rejection happened before the build, so the trail survives.
	if _, err := client.CaptureEvent(context.Background(), "next capture", LevelError); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}
	doc := decodeDocument(t, transport.getEnvelopes()[0])
	crumbs, ok := doc["breadcrumbs"].(map[string]any)
	if !ok {
		t.Fatal("breadcrumbs lost after rejected capture")
	}
	values := crumbs["values"].([]any)
	if len(values) != 1 {
		t.Fatalf("Expected 1 breadcrumb, got %d", len(values))
	}
}

func TestClient_NotConfigured(t *testing.T) {
	var client Client

	if _, err := client.CaptureEvent(context.Background(), "x", LevelError); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("CaptureEvent = %v, want ErrNotConfigured", err)
	}
	if err := client.AddBreadcrumb("x", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("AddBreadcrumb = %v, want ErrNotConfigured", err)
	}
	if err := client.Flush(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Flush = %v, want ErrNotConfigured", err)
	}
	if err := client.Close(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Close = %v, want ErrNotConfigured", err)
	}
}

func TestClient_AddBreadcrumb_EmptyMessage(t *testing.T) {
	client, transport := newTestClient(t)

	if err := client.AddBreadcrumb("", "db"); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("AddBreadcrumb(\"\") = %v, want ErrEmptyMessage", err)
	}

	if _, err := client.CaptureEvent(context.Background(), "after rejected crumb", LevelInfo); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}
	doc := decodeDocument(t, transport.getEnvelopes()[0])
	if _, present := doc["breadcrumbs"]; present {
		t.Error("rejected breadcrumb still recorded")
	}
}

func TestClient_Breadcrumbs_OrderAndDefaults(t *testing.T) {
	client, transport := newTestClient(t)

	if err := client.AddBreadcrumb("first", "db"); err != nil {
		t.Fatalf("AddBreadcrumb returned error: %v", err)
	}
	if err := client.AddBreadcrumb("second", ""); err != nil {
		t.Fatalf("AddBreadcrumb returned error: %v", err)
	}
	if err := client.AddBreadcrumb("third", "net"); err != nil {
		t.Fatalf("AddBreadcrumb returned error: %v", err)
	}

	if _, err := client.CaptureEvent(context.Background(), "with trail", LevelError); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}

	doc := decodeDocument(t, transport.getEnvelopes()[0])
	crumbs, ok := doc["breadcrumbs"].(map[string]any)
	if !ok {
		t.Fatal("breadcrumbs block missing")
	}
	values, ok := crumbs["values"].([]any)
	if !ok || len(values) != 3 {
		t.Fatalf("Expected 3 breadcrumbs, got %v", crumbs["values"])
	}

	wantMessages := []string{"first", "second", "third"}
	wantCategories := []string{"db", "log", "net"}
	for i, raw := range values {
		crumb := raw.(map[string]any)
		if crumb["message"] != wantMessages[i] {
			t.Errorf("breadcrumb %d message = %v, want %q", i, crumb["message"], wantMessages[i])
		}
		if crumb["category"] != wantCategories[i] {
			t.Errorf("breadcrumb %d category = %v, want %q", i, crumb["category"], wantCategories[i])
		}
		if _, ok := crumb["timestamp"].(string); !ok {
			t.Errorf("breadcrumb %d has no timestamp", i)
		}
	}
}

func TestClient_Breadcrumbs_ConsumedByCapture(t *testing.T) {
	client, transport := newTestClient(t)

	if err := client.AddBreadcrumb("only for the first", ""); err != nil {
		t.Fatalf("AddBreadcrumb returned error: %v", err)
	}

	if _, err := client.CaptureEvent(context.Background(), "first", LevelError); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}
	if _, err := client.CaptureEvent(context.Background(), "second", LevelError); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}

	envelopes := transport.getEnvelopes()
	if len(envelopes) != 2 {
		t.Fatalf("Expected 2 envelopes, got %d", len(envelopes))
	}

	first := decodeDocument(t, envelopes[0])
	if _, present := first["breadcrumbs"]; !present {
		t.Error("first capture lost its breadcrumbs")
	}
	second := decodeDocument(t, envelopes[1])
	if _, present := second["breadcrumbs"]; present {
		t.Error("second capture inherited consumed breadcrumbs")
	}
}

func TestClient_Breadcrumbs_ConsumedOnDeliveryFailure(t *testing.T) {
	transport := &testTransport{sendErr: &DeliveryError{StatusCode: 503}}
	client, err := New("testkey", "42", WithTransport(transport))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := client.AddBreadcrumb("gone after the attempt", ""); err != nil {
		t.Fatalf("AddBreadcrumb returned error: %v", err)
	}

	if _, err := client.CaptureEvent(context.Background(), "will fail", LevelError); err == nil {
		t.Fatal("CaptureEvent should have failed")
	}

	// The build consumed the trail even though delivery failed.
	transport.sendErr = nil
	if _, err := client.CaptureEvent(context.Background(), "after failure", LevelError); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}
	doc := decodeDocument(t, transport.getEnvelopes()[0])
	if _, present := doc["breadcrumbs"]; present {
		t.Error("trail survived a capture that reached the transport")
	}
}

func TestClient_CaptureMessage_DiscardsTitle(t *testing.T) {
	client, transport := newTestClient(t)

	id, err := client.CaptureMessage(context.Background(), "TITLE-MARKER-9000", "the real message", LevelError)
	if err != nil {
		t.Fatalf("CaptureMessage returned error: %v", err)
	}
	if id == "" {
		t.Error("CaptureMessage returned empty ID")
	}

	env := transport.getEnvelopes()[0]
	if strings.Contains(string(env.Bytes()), "TITLE-MARKER-9000") {
		t.Error("title leaked into the envelope")
	}
	doc := decodeDocument(t, env)
	logentry := doc["logentry"].(map[string]any)
	if logentry["message"] != "the real message" {
		t.Errorf("logentry.message = %v, want the real message", logentry["message"])
	}
}

func TestClient_CaptureException_DiscardsTitle(t *testing.T) {
	client, transport := newTestClient(t)

	if _, err := client.CaptureException(context.Background(), "ExceptionTitle", "boom", LevelFatal); err != nil {
		t.Fatalf("CaptureException returned error: %v", err)
	}

	env := transport.getEnvelopes()[0]
	if strings.Contains(string(env.Bytes()), "ExceptionTitle") {
		t.Error("title leaked into the envelope")
	}
	doc := decodeDocument(t, env)
	if doc["level"] != "fatal" {
		t.Errorf("level = %v, want fatal", doc["level"])
	}
}

func TestClient_CaptureEvent_DeliveryError(t *testing.T) {
	wantErr := &DeliveryError{StatusCode: 503}
	transport := &testTransport{sendErr: wantErr}
	client, err := New("testkey", "42", WithTransport(transport))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	id, err := client.CaptureEvent(context.Background(), "doomed", LevelError)
	if id != "" {
		t.Errorf("failed capture returned ID %q", id)
	}

	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("error %v is not a *DeliveryError", err)
	}
	if deliveryErr.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", deliveryErr.StatusCode)
	}
}

func TestClient_IndependentClients(t *testing.T) {
	clientA, transportA := newTestClient(t, WithEnvironment("env-a"))
	clientB, transportB := newTestClient(t, WithEnvironment("env-b"))

	if err := clientA.AddBreadcrumb("only on A", ""); err != nil {
		t.Fatalf("AddBreadcrumb returned error: %v", err)
	}

	if _, err := clientB.CaptureEvent(context.Background(), "from B", LevelInfo); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}
	if _, err := clientA.CaptureEvent(context.Background(), "from A", LevelInfo); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}

	docB := decodeDocument(t, transportB.getEnvelopes()[0])
	if _, present := docB["breadcrumbs"]; present {
		t.Error("client B saw client A's breadcrumbs")
	}
	if docB["environment"] != "env-b" {
		t.Errorf("client B environment = %v, want env-b", docB["environment"])
	}

	docA := decodeDocument(t, transportA.getEnvelopes()[0])
	crumbs, ok := docA["breadcrumbs"].(map[string]any)
	if !ok {
		t.Fatal("client A lost its breadcrumbs")
	}
	if len(crumbs["values"].([]any)) != 1 {
		t.Errorf("client A breadcrumb count wrong: %v", crumbs["values"])
	}
}

func TestClient_CaptureEvent_AppliesScrubbing(t *testing.T) {
	client, transport := newTestClient(t, WithDefaultScrubbing())

	if err := client.AddBreadcrumb("logging in with password=hunter2", "auth-flow"); err != nil {
		t.Fatalf("AddBreadcrumb returned error: %v", err)
	}
	if _, err := client.CaptureEvent(context.Background(), "request failed with api_key=secret123", LevelError); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}

	doc := decodeDocument(t, transport.getEnvelopes()[0])
	message := doc["logentry"].(map[string]any)["message"].(string)
	if strings.Contains(message, "secret123") {
		t.Errorf("message still contains the secret: %q", message)
	}
	if !strings.Contains(message, "[REDACTED]") {
		t.Errorf("message was not redacted: %q", message)
	}

	crumb := doc["breadcrumbs"].(map[string]any)["values"].([]any)[0].(map[string]any)
	if strings.Contains(crumb["message"].(string), "hunter2") {
		t.Errorf("breadcrumb still contains the secret: %v", crumb["message"])
	}
}

func TestClient_Extra_ExcludesOwnConfiguration(t *testing.T) {
	t.Setenv("MINISENTRY_KEY", "should-never-appear")
	t.Setenv("MINISENTRY_TEST_SENTINEL", "hidden")
	t.Setenv("SOME_APP_SETTING", "visible")

	client, transport := newTestClient(t)
	if _, err := client.CaptureEvent(context.Background(), "env snapshot", LevelInfo); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}

	doc := decodeDocument(t, transport.getEnvelopes()[0])
	extra, ok := doc["extra"].(map[string]any)
	if !ok {
		t.Fatalf("extra missing: %v", doc["extra"])
	}

	if _, present := extra["MINISENTRY_KEY"]; present {
		t.Error("MINISENTRY_KEY leaked into extra")
	}
	if _, present := extra["MINISENTRY_TEST_SENTINEL"]; present {
		t.Error("MINISENTRY_TEST_SENTINEL leaked into extra")
	}
	if extra["SOME_APP_SETTING"] != "visible" {
		t.Errorf("SOME_APP_SETTING = %v, want visible", extra["SOME_APP_SETTING"])
	}
}

func TestClient_ConcurrentBreadcrumbs(t *testing.T) {
	client, transport := newTestClient(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = client.AddBreadcrumb("concurrent crumb", "stress")
			}
		}()
	}
	wg.Wait()

	if _, err := client.CaptureEvent(context.Background(), "after the storm", LevelInfo); err != nil {
		t.Fatalf("CaptureEvent returned error: %v", err)
	}

	doc := decodeDocument(t, transport.getEnvelopes()[0])
	values := doc["breadcrumbs"].(map[string]any)["values"].([]any)
	if len(values) != 100 {
		t.Errorf("Expected 100 breadcrumbs, got %d", len(values))
	}
}

func TestClient_FlushAndClose_Delegate(t *testing.T) {
	client, transport := newTestClient(t)

	if err := client.Flush(context.Background()); err != nil {
		t.Errorf("Flush returned error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if transport.flushes != 1 {
		t.Errorf("transport flushes = %d, want 1", transport.flushes)
	}
	if transport.closes != 1 {
		t.Errorf("transport closes = %d, want 1", transport.closes)
	}
}
