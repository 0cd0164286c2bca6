package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	"github.com/angelmondragon/autoshop-backend/pkg/config"
)

var devOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORS applies the configured origin policy. Dev falls back to the local
// frontends; any other environment without origins serves same-origin only.
func CORS(app config.AppConfig) func(http.Handler) http.Handler {
	origins := app.AllowedOrigins
	if len(origins) == 0 {
		if !app.IsDev() {
			return func(next http.Handler) http.Handler { return next }
		}
		origins = devOrigins
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", IdempotencyKeyHeader, responses.RequestIDHeader},
		ExposedHeaders:   []string{responses.RequestIDHeader, ReplayedHeader},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
