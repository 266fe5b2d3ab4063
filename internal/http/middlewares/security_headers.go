package middlewares

import (
	"net/http"

	"github.com/devinmiller/Identity/internal/http/helpers"
)

// WithSecurityHeaders inyecta cabeceras de seguridad por defecto. Las páginas
// de cuenta no se pueden embeber en frames (clickjacking sobre el login).
func WithSecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'self'")
			h.Set("Cross-Origin-Resource-Policy", "same-site")
			if helpers.IsHTTPS(r) {
				h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
