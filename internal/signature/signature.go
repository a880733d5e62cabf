// Package signature verifies the dual-key HMAC signatures attached to skill
// invocations.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

// Header names carried by a signed delivery.
const (
	HeaderVersion   = "box-signature-version"
	HeaderAlgorithm = "box-signature-algorithm"
	HeaderPrimary   = "box-signature-primary"
	HeaderSecondary = "box-signature-secondary"
	HeaderTimestamp = "box-delivery-timestamp"

	supportedVersion   = "1"
	supportedAlgorithm = "HmacSHA256"
)

// Headers is a case-insensitive view of request headers.
type Headers map[string]string

// FromHTTP flattens an http.Header, keeping the first value per name.
func FromHTTP(h http.Header) Headers {
	out := make(Headers, len(h))
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		out[strings.ToLower(name)] = values[0]
	}
	return out
}

// Get returns the value for name regardless of case.
func (h Headers) Get(name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	lower := strings.ToLower(name)
	if v, ok := h[lower]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Verifier checks deliveries against a primary and a secondary key.
type Verifier struct{}

// Verify reports whether body was signed with primaryKey or secondaryKey.
// The primary key is tried first. An empty key or a missing signature header
// never passes.
func (Verifier) Verify(body []byte, headers Headers, primaryKey, secondaryKey string) bool {
	if headers.Get(HeaderVersion) != supportedVersion {
		return false
	}
	if headers.Get(HeaderAlgorithm) != supportedAlgorithm {
		return false
	}
	timestamp := headers.Get(HeaderTimestamp)
	if matches(body, timestamp, primaryKey, headers.Get(HeaderPrimary)) {
		return true
	}
	return matches(body, timestamp, secondaryKey, headers.Get(HeaderSecondary))
}

// Verify is a convenience wrapper around Verifier.Verify.
func Verify(body []byte, headers Headers, primaryKey, secondaryKey string) bool {
	return Verifier{}.Verify(body, headers, primaryKey, secondaryKey)
}

// Compute returns the base64 HMAC-SHA256 of body followed by timestamp.
func Compute(body []byte, timestamp, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	mac.Write([]byte(timestamp))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func matches(body []byte, timestamp, key, provided string) bool {
	if key == "" || provided == "" {
		return false
	}
	expected := Compute(body, timestamp, key)
	return hmac.Equal([]byte(expected), []byte(provided))
}
