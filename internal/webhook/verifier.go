package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA256 digest on gateway callbacks.
const SignatureHeader = "Cko-Signature"

// Verifier authenticates inbound gateway callbacks. The digest is computed
// over the exact raw request bytes; re-encoding a parsed body would change
// whitespace and key order and break the comparison.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a verifier. An empty secret is a configuration error
// callers must treat as fatal at startup, never as a per-request condition.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("webhook: signing secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Signature returns the lowercase hex HMAC-SHA256 digest of the raw body.
func (v *Verifier) Signature(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the provided signature against the computed digest using a
// constant-time comparison.
func (v *Verifier) Verify(body []byte, provided string) bool {
	provided = strings.ToLower(strings.TrimSpace(provided))
	if provided == "" {
		return false
	}
	expected := v.Signature(body)
	return hmac.Equal([]byte(expected), []byte(provided))
}
