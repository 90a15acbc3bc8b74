// Package authmw provides a static bearer token gate for the API
// listener. Token issuance and identity are out of scope; this only
// keeps unauthenticated traffic off the triage endpoints when an
// operator configures a token.
package authmw

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const scheme = "Bearer "

// RequireToken returns middleware that rejects requests whose
// Authorization header does not carry the expected bearer token. The
// comparison is constant-time.
func RequireToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, scheme) {
				unauthorized(w, "missing or malformed authorization header")
				return
			}
			if subtle.ConstantTimeCompare([]byte(auth[len(scheme):]), expected) != 1 {
				unauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="triageai"`)
	http.Error(w, `{"error":"`+msg+`"}`, http.StatusUnauthorized)
}
