package chi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/bvanrooij30/rotech-website-sub001/webhook"
	"github.com/bvanrooij30/rotech-website-sub001/webhook/signature"
)

/* HTTP layer DTOs for the internal API
 * Separate from domain entities to avoid leaking internal structure
 */

// processResponse reports the outcome of a queue drain pass
type processResponse struct {
	Processed int `json:"processed"`
}

// eventAck acknowledges an inbound portal event
type eventAck struct {
	Received string `json:"received"`
}

// writeSignedJSON renders a response body and, when an API secret is
// configured, an X-API-Signature header over the exact body bytes so
// the portal can verify data this server produces.
func writeSignedJSON(w http.ResponseWriter, v any, apiSecret string) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if apiSecret != "" {
		sig, err := signature.Generate(body, apiSecret)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-API-Signature", sig)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// processQueue handles POST /v1/internal/webhooks/process. It is
// invoked by an external scheduler; this service never schedules
// drain passes itself.
func processQueue(dispatcher Dispatcher, apiSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		processed, err := dispatcher.ProcessQueue(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeSignedJSON(w, processResponse{Processed: processed}, apiSecret)
	})
}

// getQueue handles GET /v1/internal/webhooks/queue
func getQueue(dispatcher Dispatcher, apiSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, err := dispatcher.Status(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeSignedJSON(w, status, apiSecret)
	})
}

// postPortalEvent handles POST /v1/internal/portal/events: signed
// payloads sent back by the portal. The signature covers the raw body
// bytes; handing the event to application code is the caller's
// concern, this endpoint validates and acknowledges.
func postPortalEvent(webhookSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		sig := r.Header.Get("X-Webhook-Signature")
		if !signature.Validate(body, sig, webhookSecret) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(errorResponse{
				Error: "Invalid webhook signature",
				Code:  "INVALID_SIGNATURE",
			})
			return
		}

		var evt webhook.Event
		if err := json.Unmarshal(body, &evt); err != nil {
			http.Error(w, "invalid event payload", http.StatusBadRequest)
			return
		}
		if err := evt.Event.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(eventAck{Received: evt.Event.String()})
	})
}
