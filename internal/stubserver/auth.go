package stubserver

import "net/http"

// authMiddleware rejects requests whose Authorization header does not match
// token exactly. An empty token disables the check.
func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != token {
				writeJSON(w, http.StatusUnauthorized, failure("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
