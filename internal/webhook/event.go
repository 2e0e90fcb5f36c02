package webhook

import (
	"encoding/json"

	"github.com/nealfung/checkout-shop/internal/common"
)

// Event types delivered by the payment gateway.
const (
	EventPaymentCaptured = "payment_captured"
	EventPaymentRefunded = "payment_refunded"
	EventPaymentApproved = "payment_approved"
)

// Event is a verified gateway notification. Raw holds the exact bytes as
// received so downstream consumers can re-verify or archive the original
// payload.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
	Raw  []byte    `json:"-"`
}

// EventData is the provider-defined payload. Only the fields this service
// reads are mapped; the rest stays available through Raw.
type EventData struct {
	ID        string      `json:"id"`
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
	Reference string      `json:"reference"`
}

// ParseEvent decodes a verified raw body into an Event.
func ParseEvent(raw []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return Event{}, err
	}
	evt.Raw = raw
	return evt, nil
}

// DedupKey identifies the event for replay protection. Providers may deliver
// the same event more than once; the event id, not type+timestamp, is the
// identity. Envelopes without an id fall back to a digest of the raw body so
// replay protection never switches off.
func (e Event) DedupKey() string {
	if e.ID != "" {
		return e.ID
	}
	return common.Sha256Hex(e.Raw)
}
