package webhook

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
)

// adminAllowed reports whether /api may be mounted. Without a token the
// admin routes are only served on a loopback bind.
func adminAllowed(bind, token string) bool {
	if token != "" {
		return true
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// bearerAuth validates "Authorization: Bearer <token>". An empty token
// disables authentication; adminAllowed limits that to loopback binds.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			provided := strings.TrimPrefix(auth, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
