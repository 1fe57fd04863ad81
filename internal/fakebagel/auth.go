package fakebagel

import (
	"net/http"
	"strings"
)

// exemptPaths are routes that bypass authentication (heartbeat).
var exemptPaths = map[string]struct{}{
	"/api/v1":  {},
	"/api/v1/": {},
}

// AuthMiddleware accepts a known key in either the X-API-Key header or a
// Bearer Authorization header. If apiKeys is empty, authentication is disabled.
func AuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				auth := r.Header.Get("Authorization")
				if auth == "" {
					writeError(w, http.StatusUnauthorized, "AuthError", "missing api key")
					return
				}
				const bearerPrefix = "Bearer "
				if !strings.HasPrefix(auth, bearerPrefix) {
					writeError(w, http.StatusUnauthorized, "AuthError", "authorization header must use Bearer scheme")
					return
				}
				key = auth[len(bearerPrefix):]
			}

			if _, ok := validKeys[key]; !ok {
				writeError(w, http.StatusUnauthorized, "AuthError", "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
