package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

/* Payload signing for the portal integration channel.
 * Both directions use the same scheme: HMAC-SHA256 over the exact
 * serialized payload bytes, hex encoded.
 */

// Generate computes the HMAC-SHA256 signature of payload using secret
// and returns it hex encoded. Signing with an empty secret is refused
// so a misconfigured integration fails loudly instead of producing
// predictable signatures.
func Generate(payload []byte, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("signing payload: no secret configured")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Validate reports whether sig is a valid signature of payload under
// secret. The comparison is constant time so repeated guesses against a
// stable payload leak nothing through timing. Malformed hex, a length
// mismatch, or a missing secret all yield false rather than an error so
// callers get a uniform boolean outcome.
func Validate(payload []byte, sig, secret string) bool {
	if secret == "" {
		return false
	}

	expected, err := Generate(payload, secret)
	if err != nil {
		return false
	}

	expectedBytes, err := hex.DecodeString(expected)
	if err != nil {
		return false
	}
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	if len(sigBytes) != len(expectedBytes) {
		return false
	}

	return subtle.ConstantTimeCompare(sigBytes, expectedBytes) == 1
}
