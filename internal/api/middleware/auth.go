package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/futig/rag-console/internal/pkg/response"
)

// Auth requires "Authorization: Bearer <key>" on every request.
func Auth(key string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.Detail(r.Context(), w, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				response.Detail(r.Context(), w, http.StatusForbidden, "Invalid authentication scheme.", nil)
				return
			}

			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(key)) != 1 {
				response.Detail(r.Context(), w, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
