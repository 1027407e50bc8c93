// envelope.go implements the wire framing: two compact JSON header lines
// followed by the event document, with an exact byte-length field.

package minisentry

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// envelopeHeader is the first envelope line.
type envelopeHeader struct {
	EventID string `json:"event_id"`
}

// itemHeader is the second envelope line. Length counts the exact bytes
// of the document that follows.
type itemHeader struct {
	Type   string `json:"type"`
	Length int    `json:"length"`
}

// itemTypeEvent is the only item type this client produces.
const itemTypeEvent = "event"

// Envelope is one encoded report, ready for delivery. The three lines are
// joined by single newlines with no trailing newline; the item header's
// length field counts the document bytes exactly as transmitted.
type Envelope struct {
	// EventID is the identifier shared by the envelope header and the
	// event document.
	EventID string

	// Document is the compact serialized event, exactly the bytes the
	// length field counts.
	Document []byte

	body []byte
}

// NewEnvelope serializes the event and frames it for transport. The
// document is serialized once, compact, and checked for validity before
// the length is computed; a document that fails either step aborts with
// ErrEncode so a corrupt payload is never transmitted.
func NewEnvelope(event *Event) (*Envelope, error) {
	doc, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if !json.Valid(doc) {
		return nil, fmt.Errorf("%w: serialized document is not valid JSON", ErrEncode)
	}

	header, err := json.Marshal(envelopeHeader{EventID: event.EventID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	item, err := json.Marshal(itemHeader{Type: itemTypeEvent, Length: len(doc)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	var buf bytes.Buffer
	buf.Grow(len(header) + len(item) + len(doc) + 2)
	buf.Write(header)
	buf.WriteByte('\n')
	buf.Write(item)
	buf.WriteByte('\n')
	buf.Write(doc)

	return &Envelope{
		EventID:  event.EventID,
		Document: doc,
		body:     buf.Bytes(),
	}, nil
}

// Bytes returns the complete envelope body.
func (e *Envelope) Bytes() []byte {
	return e.body
}

// Len returns the envelope body size in bytes.
func (e *Envelope) Len() int {
	return len(e.body)
}
