package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"github.com/bvanrooij30/rotech-website-sub001/apiauth"
	"github.com/bvanrooij30/rotech-website-sub001/webhook"
)

// Dispatcher is the queue surface the internal API exposes
type Dispatcher interface {
	ProcessQueue(ctx context.Context) (int, error)
	Status(ctx context.Context) (webhook.QueueStatus, error)
}

// Secrets carries the static credentials the HTTP layer needs: the
// webhook secret validates inbound portal payloads, the API secret
// signs response data this server produces.
type Secrets struct {
	APISecret     string
	WebhookSecret string
}

// Handlers builds the internal API router. Every route under
// /v1/internal passes through the authenticator before its handler
// runs; health and metrics stay open for probes and scrapes.
func Handlers(authenticator *apiauth.Authenticator, dispatcher Dispatcher, secrets Secrets, metricsHandler http.Handler) *chi.Mux {
	logger := httplog.NewLogger("portal-integration", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/v1/internal", func(r chi.Router) {
		r.Use(Authenticated(authenticator))

		// Queue drain trigger for the external scheduler
		r.Post("/webhooks/process", processQueue(dispatcher, secrets.APISecret).ServeHTTP)

		// Operational visibility into the retry queue
		r.Get("/webhooks/queue", getQueue(dispatcher, secrets.APISecret).ServeHTTP)

		// Signed events coming back from the portal
		r.Post("/portal/events", postPortalEvent(secrets.WebhookSecret).ServeHTTP)
	})

	return r
}
