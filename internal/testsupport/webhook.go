package testsupport

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"
)

// SignWebhook returns the header set the content platform sends with a
// skill invocation signed by primary and secondary.
func SignWebhook(body []byte, primary, secondary string) http.Header {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	h := http.Header{}
	h.Set("box-signature-version", "1")
	h.Set("box-signature-algorithm", "HmacSHA256")
	h.Set("box-delivery-timestamp", timestamp)
	if primary != "" {
		h.Set("box-signature-primary", sign(body, timestamp, primary))
	}
	if secondary != "" {
		h.Set("box-signature-secondary", sign(body, timestamp, secondary))
	}
	return h
}

func sign(body []byte, timestamp, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	mac.Write([]byte(timestamp))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
