package apiauth

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client identifiers. There is exactly one legitimate caller in this
// design, so the identifier is a constant, not a key registry.
const (
	ClientPortal = "portal"
	ClientDev    = "dev"
)

// Failure codes returned to rejected callers
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeIPNotAllowed = "IP_NOT_ALLOWED"
	CodeRateLimited  = "RATE_LIMITED"
)

/* Failure is a ready-to-send rejection. The HTTP layer renders it as
 * a JSON body {error, code} plus rate limit headers; a nil Failure
 * from Authenticate means the request may proceed.
 */
type Failure struct {
	Status     int
	Code       string
	Message    string
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// KeyResult is the outcome of validating the Authorization header
type KeyResult struct {
	Authenticated bool
	ClientID      string
	Reason        string
}

// Recorder counts authentication decisions. The metrics package
// provides the real implementation; tests run with the no-op.
type Recorder interface {
	Decision(outcome string)
}

// NopRecorder discards every observation
type NopRecorder struct{}

func (NopRecorder) Decision(string) {}

/* Authenticator gates every inbound request to the internal API
 * surface before business logic runs.
 * Uses pointer semantics as it's an API, not data.
 */
type Authenticator struct {
	apiKey    string
	mode      Mode
	allowlist *Allowlist
	limiter   *RateLimiter
	recorder  Recorder
	logger    zerolog.Logger
}

// NewAuthenticator creates an authenticator with dependency injection.
// A nil recorder disables metrics.
func NewAuthenticator(apiKey string, mode Mode, allowlist *Allowlist, limiter *RateLimiter, recorder Recorder, logger zerolog.Logger) *Authenticator {
	if allowlist == nil {
		allowlist = NewAllowlist("")
	}
	if limiter == nil {
		limiter = NewRateLimiter(0, 0, nil)
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Authenticator{
		apiKey:    apiKey,
		mode:      mode,
		allowlist: allowlist,
		limiter:   limiter,
		recorder:  recorder,
		logger:    logger,
	}
}

// ValidateKey checks the Authorization header against the configured
// API key. The key is compared with plain equality: unlike signature
// verification this is a direct credential match, not an oracle an
// attacker can probe byte by byte against a stable payload.
func (a *Authenticator) ValidateKey(r *http.Request) KeyResult {
	if a.apiKey == "" {
		if a.mode == PermissiveNoKey {
			// Local development convenience, gated on the explicit
			// mode decided at startup
			return KeyResult{Authenticated: true, ClientID: ClientDev}
		}
		return KeyResult{Reason: "API authentication not configured"}
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return KeyResult{Reason: "Missing Authorization header"}
	}

	scheme, key, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return KeyResult{Reason: "Invalid authorization type"}
	}

	if key != a.apiKey {
		return KeyResult{Reason: "Invalid API key"}
	}

	return KeyResult{Authenticated: true, ClientID: ClientPortal}
}

// Authenticate runs the full gate in order: IP allowlist, API key,
// then rate limit keyed by the authenticated client. The ordering
// matters: an IP rejection must not reveal whether a key would have
// been valid, and the rate limit only applies to authenticated
// callers. A nil return means pass.
func (a *Authenticator) Authenticate(r *http.Request) *Failure {
	ip := ClientIP(r)

	if !a.allowlist.Allows(ip) {
		a.audit(r, ip, "", "ip_rejected")
		return &Failure{
			Status:  http.StatusForbidden,
			Code:    CodeIPNotAllowed,
			Message: "IP address not allowed",
		}
	}

	key := a.ValidateKey(r)
	if !key.Authenticated {
		a.audit(r, ip, "", "unauthorized")
		return &Failure{
			Status:  http.StatusUnauthorized,
			Code:    CodeUnauthorized,
			Message: key.Reason,
		}
	}

	decision := a.limiter.Check(key.ClientID)
	if !decision.Allowed {
		a.audit(r, ip, key.ClientID, "rate_limited")
		return &Failure{
			Status:     http.StatusTooManyRequests,
			Code:       CodeRateLimited,
			Message:    "Rate limit exceeded",
			Limit:      a.limiter.Max(),
			Remaining:  decision.Remaining,
			RetryAfter: decision.ResetIn,
		}
	}

	a.audit(r, ip, key.ClientID, "allowed")
	return nil
}

// audit writes one structured log line per decision. Fire and forget:
// logging can never block or fail the request.
func (a *Authenticator) audit(r *http.Request, ip, clientID, outcome string) {
	a.recorder.Decision(outcome)
	a.logger.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("ip", ip).
		Str("user_agent", r.UserAgent()).
		Str("client_id", clientID).
		Str("outcome", outcome).
		Msg("api auth decision")
}
