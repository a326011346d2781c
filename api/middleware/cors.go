package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware that applies the configured origin allowlist.
// A "*" entry allows every origin. Requests without an Origin header pass through.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Profile-Role", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Next-Cursor", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
