package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/arunmurugan-dev/kadai-backend/api/responses"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
)

// SharedSecret guards internal trigger endpoints (the expiry sweep) with a
// bearer token compared in constant time.
func SharedSecret(token string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sweep token not configured"))
				return
			}

			supplied := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(supplied), "bearer ") {
				supplied = strings.TrimSpace(supplied[7:])
			}
			if supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid trigger token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
