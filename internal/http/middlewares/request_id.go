package middlewares

import (
	"net/http"
	"strings"

	"github.com/devinmiller/Identity/internal/observability/logger"
	"github.com/google/uuid"
)

// WithRequestID propaga X-Request-ID o genera uno nuevo (uuid v4).
// El ID se expone en el header de respuesta y se inyecta en el contexto.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if rid == "" || len(rid) > 128 {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)
			next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), rid)))
		})
	}
}

// GetRequestID obtiene el request ID del contexto ("" si no hay).
func GetRequestID(r *http.Request) string {
	return logger.RequestIDFrom(r.Context())
}
