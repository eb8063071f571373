package chi

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/bvanrooij30/rotech-website-sub001/apiauth"
)

// errorResponse is the JSON body for rejected requests
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Authenticated gates a route group behind the request authenticator.
// A non-nil failure is rendered immediately and the handler chain
// stops; business logic only ever sees authenticated requests.
func Authenticated(authenticator *apiauth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if failure := authenticator.Authenticate(r); failure != nil {
				renderFailure(w, failure)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func renderFailure(w http.ResponseWriter, failure *apiauth.Failure) {
	w.Header().Set("Content-Type", "application/json")

	if failure.Status == http.StatusTooManyRequests {
		// Retry-After is whole seconds, rounded up
		retryAfter := int(math.Ceil(failure.RetryAfter.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(failure.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(failure.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(retryAfter))
	}

	w.WriteHeader(failure.Status)
	json.NewEncoder(w).Encode(errorResponse{
		Error: failure.Message,
		Code:  failure.Code,
	})
}
