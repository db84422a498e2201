package auth

import (
	"net/http"
)

// APIKeyMiddleware wraps next with the HTTP equivalent of APIKeyInterceptor.
func APIKeyMiddleware(mode, header, key string, next http.Handler) http.Handler {
	if !enabled(mode, key) {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !keyMatches(r.Header.Get(header), key) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"invalid api key"}` + "\n")) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}
