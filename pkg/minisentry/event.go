// event.go defines the wire-level event and breadcrumb model.

package minisentry

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// Level indicates the reported importance of an event. The value is
// transmitted verbatim; the collector decides what it means. The constants
// below cover the levels collectors conventionally understand.
type Level string

const (
	// LevelDebug marks diagnostic noise.
	LevelDebug Level = "debug"

	// LevelInfo marks routine occurrences. It is the default level.
	LevelInfo Level = "info"

	// LevelWarning marks a non-fatal issue that may need attention.
	LevelWarning Level = "warning"

	// LevelError marks a recoverable error that caused an operation to fail.
	LevelError Level = "error"

	// LevelFatal marks an unrecoverable error such as a panic.
	LevelFatal Level = "fatal"
)

// timestampLayout is ISO-8601 UTC with second precision, the only time
// format that appears on the wire.
const timestampLayout = "2006-01-02T15:04:05Z"

// Timestamp marshals as ISO-8601 UTC with second precision regardless of
// the wall clock's zone or sub-second reading.
type Timestamp time.Time

// MarshalJSON renders the timestamp in wire form.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(timestampLayout) + `"`), nil
}

// UnmarshalJSON parses the wire form back into a timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the timestamp as a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.Time(t).UTC()
}

// Breadcrumb is one entry of the trail recorded before an event.
type Breadcrumb struct {
	// Timestamp is when the breadcrumb was recorded.
	Timestamp Timestamp `json:"timestamp"`

	// Message is the breadcrumb text. Never empty.
	Message string `json:"message"`

	// Category groups related breadcrumbs. Defaults to "log".
	Category string `json:"category"`
}

// Breadcrumbs wraps the trail in the envelope's list form.
type Breadcrumbs struct {
	Values []Breadcrumb `json:"values"`
}

// LogEntry carries the event's message.
type LogEntry struct {
	Message string `json:"message"`
}

// DeviceContext describes the hardware the event came from.
type DeviceContext struct {
	// Type is always "device".
	Type string `json:"type"`

	// Arch is the CPU architecture (uname -m).
	Arch string `json:"arch"`
}

// OSContext describes the operating system the event came from.
type OSContext struct {
	// Type is always "os".
	Type string `json:"type"`

	// Name is the kernel name (uname -s).
	Name string `json:"name"`

	// Version is the kernel version string (uname -v).
	Version string `json:"version"`

	// KernelVersion is the kernel release (uname -r).
	KernelVersion string `json:"kernel_version"`
}

// Contexts groups the host description blocks.
type Contexts struct {
	Device DeviceContext `json:"device"`
	OS     OSContext     `json:"os"`
}

// SDKInfo identifies the client that produced the event.
type SDKInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Event is the complete report document. Field order matches the wire
// order of the serialized document. All fields are populated by the client
// at capture time; the event holds no live references to client state.
type Event struct {
	// EventID is the 32-character lowercase hex identifier, shared with
	// the envelope header.
	EventID string `json:"event_id"`

	// Platform is always "go".
	Platform string `json:"platform"`

	// LogEntry carries the message.
	LogEntry LogEntry `json:"logentry"`

	// Timestamp is the capture time.
	Timestamp Timestamp `json:"timestamp"`

	// ServerName is the reporting host's name.
	ServerName string `json:"server_name"`

	// Environment tags the deployment, "production" by default.
	Environment string `json:"environment"`

	// Level is the reported severity, transmitted verbatim.
	Level Level `json:"level"`

	// Contexts describes the host.
	Contexts Contexts `json:"contexts"`

	// Breadcrumbs is the recorded trail. Nil when no breadcrumb was ever
	// recorded, in which case the key is absent from the document; an
	// empty trail and an absent trail are different things.
	Breadcrumbs *Breadcrumbs `json:"breadcrumbs,omitempty"`

	// Extra holds the ambient process environment. Always present, even
	// when empty.
	Extra map[string]string `json:"extra"`

	// Release identifies the reporting build.
	Release string `json:"release"`

	// SDK identifies this client.
	SDK SDKInfo `json:"sdk"`
}
