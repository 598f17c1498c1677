// ABOUTME: Tests for webhook signature verification
// ABOUTME: Covers round-trip validity, tampered bodies, and malformed headers

package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify_RoundTrip(t *testing.T) {
	secret := "channel-secret"
	body := []byte(`{"destination":"U123","events":[]}`)

	sig := Sign(secret, body)
	assert.True(t, Verify(secret, body, sig))
}

func TestVerify_TamperedBody(t *testing.T) {
	secret := "channel-secret"
	body := []byte(`{"destination":"U123","events":[]}`)
	sig := Sign(secret, body)

	// Flip a single byte anywhere in the body
	for i := range body {
		mutated := make([]byte, len(body))
		copy(mutated, body)
		mutated[i] ^= 0x01
		assert.False(t, Verify(secret, mutated, sig), "mutation at byte %d must invalidate", i)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	body := []byte(`{"events":[]}`)
	sig := Sign("secret-a", body)
	assert.False(t, Verify("secret-b", body, sig))
}

func TestVerify_MissingHeader(t *testing.T) {
	assert.False(t, Verify("secret", []byte("body"), ""))
}

func TestVerify_MalformedHeader(t *testing.T) {
	assert.False(t, Verify("secret", []byte("body"), "not base64 !!!"))
}

func TestVerify_TamperedSignature(t *testing.T) {
	secret := "channel-secret"
	body := []byte(`{"events":[]}`)
	sig := Sign(secret, body)

	// Corrupt the first character of the encoded signature
	corrupted := "A" + sig[1:]
	if corrupted == sig {
		corrupted = "B" + sig[1:]
	}
	assert.False(t, Verify(secret, body, corrupted))
}
