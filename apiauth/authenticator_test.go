package apiauth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bvanrooij30/rotech-website-sub001/apiauth"
)

func newRequest(apiKey string) *http.Request {
	r := httptest.NewRequest("POST", "/v1/internal/webhooks/process", nil)
	if apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+apiKey)
	}
	return r
}

func strictAuthenticator(apiKey string, allowlist *apiauth.Allowlist, limiter *apiauth.RateLimiter) *apiauth.Authenticator {
	return apiauth.NewAuthenticator(apiKey, apiauth.Strict, allowlist, limiter, nil, zerolog.Nop())
}

func TestValidateKey(t *testing.T) {
	t.Run("exact key match authenticates as the portal", func(t *testing.T) {
		a := strictAuthenticator("key-123", nil, nil)

		result := a.ValidateKey(newRequest("key-123"))
		assert.True(t, result.Authenticated)
		assert.Equal(t, apiauth.ClientPortal, result.ClientID)
	})

	t.Run("missing header", func(t *testing.T) {
		a := strictAuthenticator("key-123", nil, nil)

		result := a.ValidateKey(newRequest(""))
		assert.False(t, result.Authenticated)
		assert.Equal(t, "Missing Authorization header", result.Reason)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		a := strictAuthenticator("key-123", nil, nil)

		r := newRequest("")
		r.Header.Set("Authorization", "Basic a2V5LTEyMw==")
		result := a.ValidateKey(r)
		assert.False(t, result.Authenticated)
		assert.Equal(t, "Invalid authorization type", result.Reason)
	})

	t.Run("wrong key", func(t *testing.T) {
		a := strictAuthenticator("key-123", nil, nil)

		result := a.ValidateKey(newRequest("key-456"))
		assert.False(t, result.Authenticated)
		assert.Equal(t, "Invalid API key", result.Reason)
	})

	t.Run("strict mode with no key configured fails closed", func(t *testing.T) {
		a := strictAuthenticator("", nil, nil)

		result := a.ValidateKey(newRequest("anything"))
		assert.False(t, result.Authenticated)
		assert.Equal(t, "API authentication not configured", result.Reason)
	})

	t.Run("permissive mode with no key configured bypasses", func(t *testing.T) {
		a := apiauth.NewAuthenticator("", apiauth.PermissiveNoKey, nil, nil, nil, zerolog.Nop())

		result := a.ValidateKey(newRequest(""))
		assert.True(t, result.Authenticated)
		assert.Equal(t, apiauth.ClientDev, result.ClientID)
	})

	t.Run("permissive mode with a key still requires it", func(t *testing.T) {
		a := apiauth.NewAuthenticator("key-123", apiauth.PermissiveNoKey, nil, nil, nil, zerolog.Nop())

		result := a.ValidateKey(newRequest("wrong"))
		assert.False(t, result.Authenticated)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("valid key, no allowlist, under limit - passes", func(t *testing.T) {
		a := strictAuthenticator("key-123", nil, nil)

		failure := a.Authenticate(newRequest("key-123"))
		assert.Nil(t, failure)
	})

	t.Run("missing or wrong key - 401 UNAUTHORIZED", func(t *testing.T) {
		a := strictAuthenticator("key-123", nil, nil)

		failure := a.Authenticate(newRequest(""))
		require.NotNil(t, failure)
		assert.Equal(t, http.StatusUnauthorized, failure.Status)
		assert.Equal(t, apiauth.CodeUnauthorized, failure.Code)
		assert.Equal(t, "Missing Authorization header", failure.Message)

		failure = a.Authenticate(newRequest("wrong"))
		require.NotNil(t, failure)
		assert.Equal(t, apiauth.CodeUnauthorized, failure.Code)
		assert.Equal(t, "Invalid API key", failure.Message)
	})

	t.Run("disallowed IP - 403 even with a valid key", func(t *testing.T) {
		a := strictAuthenticator("key-123", apiauth.NewAllowlist("203.0.113.10"), nil)

		r := newRequest("key-123")
		r.Header.Set("X-Forwarded-For", "192.0.2.99")
		failure := a.Authenticate(r)
		require.NotNil(t, failure)
		assert.Equal(t, http.StatusForbidden, failure.Status)
		assert.Equal(t, apiauth.CodeIPNotAllowed, failure.Code)
	})

	t.Run("allowlisted IP passes", func(t *testing.T) {
		a := strictAuthenticator("key-123", apiauth.NewAllowlist("203.0.113.10"), nil)

		r := newRequest("key-123")
		r.Header.Set("X-Forwarded-For", "203.0.113.10")
		assert.Nil(t, a.Authenticate(r))
	})

	t.Run("loopback passes regardless of allowlist", func(t *testing.T) {
		a := strictAuthenticator("key-123", apiauth.NewAllowlist("203.0.113.10"), nil)

		r := newRequest("key-123")
		r.RemoteAddr = "127.0.0.1:39200"
		assert.Nil(t, a.Authenticate(r))
	})

	t.Run("rate limit exceeded - 429 with retry information", func(t *testing.T) {
		clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		limiter := apiauth.NewRateLimiter(2, time.Minute, func() time.Time { return clock })
		a := strictAuthenticator("key-123", nil, limiter)

		assert.Nil(t, a.Authenticate(newRequest("key-123")))
		assert.Nil(t, a.Authenticate(newRequest("key-123")))

		failure := a.Authenticate(newRequest("key-123"))
		require.NotNil(t, failure)
		assert.Equal(t, http.StatusTooManyRequests, failure.Status)
		assert.Equal(t, apiauth.CodeRateLimited, failure.Code)
		assert.Equal(t, 2, failure.Limit)
		assert.Equal(t, 0, failure.Remaining)
		assert.Greater(t, failure.RetryAfter, time.Duration(0))
	})

	t.Run("unauthenticated requests do not consume rate budget", func(t *testing.T) {
		clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		limiter := apiauth.NewRateLimiter(1, time.Minute, func() time.Time { return clock })
		a := strictAuthenticator("key-123", nil, limiter)

		for i := 0; i < 5; i++ {
			failure := a.Authenticate(newRequest("wrong"))
			require.NotNil(t, failure)
			assert.Equal(t, apiauth.CodeUnauthorized, failure.Code)
		}

		// The budget is still intact for the legitimate caller
		assert.Nil(t, a.Authenticate(newRequest("key-123")))
	})
}

func TestNewMode(t *testing.T) {
	assert.Equal(t, apiauth.PermissiveNoKey, apiauth.NewMode("development"))
	assert.Equal(t, apiauth.PermissiveNoKey, apiauth.NewMode("local"))
	assert.Equal(t, apiauth.Strict, apiauth.NewMode("production"))
	assert.Equal(t, apiauth.Strict, apiauth.NewMode(""))
	assert.Equal(t, apiauth.Strict, apiauth.NewMode("staging"))
	assert.NoError(t, apiauth.Strict.Validate())
	assert.Error(t, apiauth.Mode(99).Validate())
}
