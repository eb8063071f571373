package webhook

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// kindPattern validates event kinds: hierarchical, full-stop delimited, [a-zA-Z0-9_.]
var kindPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

// Kind is the tag identifying what happened on the website side.
type Kind string

// Event kinds emitted towards the customer portal.
const (
	CustomerCreated       Kind = "customer.created"
	TicketCreated         Kind = "ticket.created"
	TicketUpdated         Kind = "ticket.updated"
	TicketMessage         Kind = "ticket.message"
	QuoteRequested        Kind = "quote.requested"
	PaymentCompleted      Kind = "payment.completed"
	SubscriptionCreated   Kind = "subscription.created"
	SubscriptionCancelled Kind = "subscription.cancelled"
	ContactSubmitted      Kind = "contact.submitted"
	LeadCreated           Kind = "lead.created"
)

// String returns the wire representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Validate checks the kind against the hierarchical naming rules
func (k Kind) Validate() error {
	if k == "" {
		return fmt.Errorf("event kind is required")
	}
	if !kindPattern.MatchString(string(k)) {
		return fmt.Errorf("event kind must be hierarchical and contain only [a-zA-Z0-9_.]: %s", k)
	}
	return nil
}

/* Event is the envelope POSTed to the portal.
 * Uses value semantics as it represents data, not behavior.
 * Data is an open mapping: producers are diverse and own their own
 * payload shapes, the dispatcher only signs and ships them.
 */
type Event struct {
	Event     Kind           `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// NewEvent builds the envelope for a kind and payload. The timestamp is
// assigned here, once, and is never touched again: retries resend the
// original envelope bytes, not a re-stamped copy.
func NewEvent(kind Kind, data map[string]any, now time.Time) (Event, error) {
	if err := kind.Validate(); err != nil {
		return Event{}, fmt.Errorf("validating event kind: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}

	return Event{
		Event:     kind,
		Timestamp: now.UTC().Format(time.RFC3339),
		Data:      data,
	}, nil
}

// Marshal returns the canonical serialized form of the envelope. The
// signature is computed over exactly these bytes and the same bytes go
// on the wire; queue dedup also compares them.
func (e Event) Marshal() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling event envelope: %w", err)
	}
	return payload, nil
}
