// ABOUTME: Webhook signature verification for the LINE messaging platform
// ABOUTME: HMAC-SHA256 over the raw body, base64-encoded, constant-time compare

package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Sign computes the platform signature for a raw request body: the
// base64-encoded HMAC-SHA256 of the body keyed by the channel secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header carries a valid signature for body.
// An empty or undecodable header is treated as invalid; Verify never fails.
func Verify(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}

	got, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
