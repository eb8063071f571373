package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bvanrooij30/rotech-website-sub001/webhook/signature"
)

const (
	// DefaultTimeout bounds the wall clock of a single delivery attempt
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is how many times a queued item is retried
	// before it is dropped
	DefaultMaxRetries = 3
)

// DefaultBackoff is the escalating delay schedule indexed by attempt
// number; past the end the last delay is reused.
var DefaultBackoff = []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second}

// Result is what a producer gets back from a send. Producers never see
// a panic or an error bubbling through their own code path: a broken or
// disabled integration degrades to "event not delivered".
type Result struct {
	Delivered  bool
	Skipped    bool
	StatusCode int
	Retryable  bool
	Queued     bool
	Err        error
}

// Recorder counts delivery outcomes. The metrics package provides the
// real implementation; tests run with the no-op.
type Recorder interface {
	Delivery(kind string, outcome string)
}

// NopRecorder discards every observation
type NopRecorder struct{}

func (NopRecorder) Delivery(string, string) {}

// Config holds the dispatcher settings resolved at startup
type Config struct {
	// URL is the portal endpoint; empty means the integration is
	// disabled and sends become no-op successes
	URL        string
	Secret     string
	Timeout    time.Duration
	MaxRetries int
	Backoff    []time.Duration

	// Logger is optional; nil disables delivery logging
	Logger *zerolog.Logger

	// Now overrides the clock, for tests
	Now func() time.Time
}

/* Dispatcher delivers event notifications to the portal.
 * Uses pointer semantics as it's an API, not data.
 * All mutable state lives in the Store so the dispatcher itself is safe
 * for concurrent sends.
 */
type Dispatcher struct {
	url        string
	secret     string
	client     *http.Client
	store      Store
	backoff    []time.Duration
	maxRetries int
	timeout    time.Duration
	recorder   Recorder
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDispatcher creates a dispatcher with dependency injection. A nil
// recorder disables metrics.
func NewDispatcher(cfg Config, store Store, recorder Recorder) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if len(cfg.Backoff) == 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Dispatcher{
		url:        cfg.URL,
		secret:     cfg.Secret,
		client:     &http.Client{},
		store:      store,
		backoff:    cfg.Backoff,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
		recorder:   recorder,
		logger:     logger,
		now:        cfg.Now,
	}
}

// Send builds the envelope for kind, signs it and POSTs it to the
// portal. Retryable failures (5xx, timeouts, transport errors) are
// queued for a later ProcessQueue pass; 4xx responses are permanent and
// are not queued.
func (d *Dispatcher) Send(ctx context.Context, kind Kind, data map[string]any) Result {
	if d.url == "" {
		// Integration intentionally disabled, not an error
		return Result{Delivered: true, Skipped: true}
	}

	evt, err := NewEvent(kind, data, d.now())
	if err != nil {
		return Result{Err: fmt.Errorf("building event: %w", err)}
	}

	payload, err := evt.Marshal()
	if err != nil {
		return Result{Err: err}
	}

	res := d.attempt(ctx, kind, payload)
	if res.Retryable {
		item := Item{
			ID:        uuid.New().String(),
			Kind:      kind,
			Payload:   payload,
			Attempts:  0,
			NextRetry: d.now().Add(d.backoff[0]),
			CreatedAt: d.now(),
		}
		queued, qErr := d.store.Enqueue(ctx, item)
		if qErr != nil {
			d.logger.Error().Err(qErr).Str("event", kind.String()).Msg("queueing webhook for retry")
		}
		res.Queued = queued && qErr == nil
	}
	return res
}

// attempt performs one signed delivery of the payload and classifies
// the outcome. The payload bytes are final: signature and timestamp
// header are derived from them, never regenerated.
func (d *Dispatcher) attempt(ctx context.Context, kind Kind, payload []byte) Result {
	sig, err := signature.Generate(payload, d.secret)
	if err != nil {
		// Configuration error: fail closed, never send unsigned
		d.recorder.Delivery(kind.String(), "config_error")
		return Result{Err: fmt.Errorf("signing webhook: %w", err)}
	}

	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Result{Err: fmt.Errorf("decoding queued envelope: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return Result{Err: fmt.Errorf("creating webhook request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", sig)
	req.Header.Set("X-Webhook-Event", kind.String())
	req.Header.Set("X-Webhook-Timestamp", evt.Timestamp)

	resp, err := d.client.Do(req)
	if err != nil {
		// Transport failure or timeout: the remote may recover
		d.recorder.Delivery(kind.String(), "network_error")
		d.logger.Warn().Err(err).Str("event", kind.String()).Msg("webhook delivery failed")
		return Result{Retryable: true, Err: fmt.Errorf("sending webhook: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		d.recorder.Delivery(kind.String(), "delivered")
		return Result{Delivered: true, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 500:
		d.recorder.Delivery(kind.String(), "server_error")
		d.logger.Warn().Int("status", resp.StatusCode).Str("event", kind.String()).Msg("webhook rejected by portal, will retry")
		return Result{StatusCode: resp.StatusCode, Retryable: true, Err: fmt.Errorf("webhook delivery failed with status %d", resp.StatusCode)}
	default:
		// 4xx: the portal rejected the payload permanently, retrying
		// would only trip its abuse detection
		d.recorder.Delivery(kind.String(), "rejected")
		d.logger.Error().Int("status", resp.StatusCode).Str("event", kind.String()).Msg("webhook permanently rejected by portal")
		return Result{StatusCode: resp.StatusCode, Retryable: false, Err: fmt.Errorf("webhook delivery failed with status %d", resp.StatusCode)}
	}
}

// ProcessQueue retries the current snapshot of due items once and
// returns how many were resolved, either delivered or dropped after
// exhausting their retries. Scheduling the next pass is the caller's
// job; this method never blocks waiting for future retries.
func (d *Dispatcher) ProcessQueue(ctx context.Context) (int, error) {
	due, err := d.store.Due(ctx, d.now())
	if err != nil {
		return 0, fmt.Errorf("reading due queue items: %w", err)
	}

	resolved := 0
	for _, item := range due {
		item.Attempts++

		res := d.attempt(ctx, item.Kind, item.Payload)
		if res.Delivered {
			if err := d.store.Remove(ctx, item.ID); err != nil {
				return resolved, fmt.Errorf("removing delivered item: %w", err)
			}
			resolved++
			continue
		}

		if item.Attempts >= d.maxRetries {
			// Retry budget exhausted, drop the item
			d.recorder.Delivery(item.Kind.String(), "dropped")
			d.logger.Error().Str("event", item.Kind.String()).Int("attempts", item.Attempts).Msg("webhook dropped after exhausting retries")
			if err := d.store.Remove(ctx, item.ID); err != nil {
				return resolved, fmt.Errorf("removing exhausted item: %w", err)
			}
			resolved++
			continue
		}

		if !res.Retryable {
			// The remote now rejects it permanently; no point keeping it
			d.recorder.Delivery(item.Kind.String(), "dropped")
			if err := d.store.Remove(ctx, item.ID); err != nil {
				return resolved, fmt.Errorf("removing rejected item: %w", err)
			}
			resolved++
			continue
		}

		item.NextRetry = d.now().Add(d.nextDelay(item.Attempts))
		if err := d.store.Update(ctx, item); err != nil {
			return resolved, fmt.Errorf("rescheduling item: %w", err)
		}
	}

	return resolved, nil
}

// nextDelay picks the backoff delay for an attempt count, reusing the
// largest delay once the schedule runs out.
func (d *Dispatcher) nextDelay(attempts int) time.Duration {
	idx := attempts
	if idx >= len(d.backoff) {
		idx = len(d.backoff) - 1
	}
	return d.backoff[idx]
}

// QueueStatus is a read-only snapshot of the retry queue for
// operational visibility.
type QueueStatus struct {
	Pending int             `json:"pending"`
	Items   []QueueItemInfo `json:"items"`
}

// QueueItemInfo describes one queued item
type QueueItemInfo struct {
	Event     string    `json:"event"`
	Attempts  int       `json:"attempts"`
	NextRetry time.Time `json:"next_retry"`
}

// Status reports queue depth and per-item retry state
func (d *Dispatcher) Status(ctx context.Context) (QueueStatus, error) {
	items, err := d.store.List(ctx)
	if err != nil {
		return QueueStatus{}, fmt.Errorf("listing queue items: %w", err)
	}

	status := QueueStatus{
		Pending: len(items),
		Items:   make([]QueueItemInfo, 0, len(items)),
	}
	for _, item := range items {
		status.Items = append(status.Items, QueueItemInfo{
			Event:     item.Kind.String(),
			Attempts:  item.Attempts,
			NextRetry: item.NextRetry,
		})
	}
	return status, nil
}
