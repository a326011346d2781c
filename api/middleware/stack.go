package middleware

import (
	"net/http"

	"github.com/foodlink/foodlink-backend/api/responses"
)

// ExposeStack marks error responses of the request as allowed to carry a stack trace.
func ExposeStack(expose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(responses.WithStackExposure(r.Context(), expose)))
		})
	}
}
