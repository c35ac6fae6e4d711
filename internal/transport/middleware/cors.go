package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS builds the cross-origin middleware from the configured allowed
// origins (comma separated, "*" permitted).
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	origins := []string{"*"}
	if allowedOrigins != "" {
		origins = origins[:0]
		for _, o := range strings.Split(allowedOrigins, ",") {
			origins = append(origins, strings.TrimSpace(o))
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
