package webhook_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bvanrooij30/rotech-website-sub001/webhook"
)

func TestNewEvent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)

	t.Run("timestamp assigned once at construction", func(t *testing.T) {
		evt, err := webhook.NewEvent(webhook.TicketCreated, map[string]any{"id": "T1"}, now)
		require.NoError(t, err)
		assert.Equal(t, "2025-06-01T12:30:45Z", evt.Timestamp)
		assert.Equal(t, webhook.TicketCreated, evt.Event)
	})

	t.Run("timestamp normalized to UTC", func(t *testing.T) {
		loc := time.FixedZone("CEST", 2*60*60)
		evt, err := webhook.NewEvent(webhook.LeadCreated, nil, time.Date(2025, 6, 1, 14, 0, 0, 0, loc))
		require.NoError(t, err)
		assert.Equal(t, "2025-06-01T12:00:00Z", evt.Timestamp)
	})

	t.Run("nil data becomes empty object", func(t *testing.T) {
		evt, err := webhook.NewEvent(webhook.ContactSubmitted, nil, now)
		require.NoError(t, err)

		payload, err := evt.Marshal()
		require.NoError(t, err)
		assert.Contains(t, string(payload), `"data":{}`)
	})

	t.Run("error - empty kind", func(t *testing.T) {
		_, err := webhook.NewEvent("", nil, now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event kind is required")
	})

	t.Run("error - malformed kind", func(t *testing.T) {
		_, err := webhook.NewEvent("ticket created!", nil, now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hierarchical")
	})
}

func TestEventMarshal(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("round trips through JSON", func(t *testing.T) {
		evt, err := webhook.NewEvent(webhook.PaymentCompleted, map[string]any{"invoice": "INV-7", "amount": 149.50}, now)
		require.NoError(t, err)

		payload, err := evt.Marshal()
		require.NoError(t, err)

		var decoded webhook.Event
		require.NoError(t, json.Unmarshal(payload, &decoded))
		assert.Equal(t, evt.Event, decoded.Event)
		assert.Equal(t, evt.Timestamp, decoded.Timestamp)
		assert.Equal(t, "INV-7", decoded.Data["invoice"])
	})

	t.Run("deterministic for identical events", func(t *testing.T) {
		data := map[string]any{"b": 2, "a": 1, "c": 3}
		evt1, err := webhook.NewEvent(webhook.TicketUpdated, data, now)
		require.NoError(t, err)
		evt2, err := webhook.NewEvent(webhook.TicketUpdated, data, now)
		require.NoError(t, err)

		p1, err := evt1.Marshal()
		require.NoError(t, err)
		p2, err := evt2.Marshal()
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	})
}

func TestKindValidate(t *testing.T) {
	known := []webhook.Kind{
		webhook.CustomerCreated,
		webhook.TicketCreated,
		webhook.TicketUpdated,
		webhook.TicketMessage,
		webhook.QuoteRequested,
		webhook.PaymentCompleted,
		webhook.SubscriptionCreated,
		webhook.SubscriptionCancelled,
		webhook.ContactSubmitted,
		webhook.LeadCreated,
	}
	for _, kind := range known {
		assert.NoError(t, kind.Validate(), kind.String())
	}

	assert.Error(t, webhook.Kind("").Validate())
	assert.Error(t, webhook.Kind("ticket..created").Validate())
	assert.Error(t, webhook.Kind("ticket created").Validate())
}
