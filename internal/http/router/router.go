// Package router arma el chi.Router del servicio.
package router

import (
	"net/http"

	accountctrl "github.com/devinmiller/Identity/internal/http/controllers/account"
	healthctrl "github.com/devinmiller/Identity/internal/http/controllers/health"
	httperrors "github.com/devinmiller/Identity/internal/http/errors"
	mw "github.com/devinmiller/Identity/internal/http/middlewares"
	"github.com/devinmiller/Identity/internal/rate"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Account *accountctrl.Controllers
	Health  *healthctrl.Controllers

	// Opcionales: rate limit de los POST de login y registro.
	LoginLimiter    rate.Limiter
	RegisterLimiter rate.Limiter

	// Gatherer para /metrics; nil usa el default de prometheus.
	Gatherer prometheus.Gatherer

	// ExternalCallbackPath debe coincidir con el redirect_uri registrado en
	// los proveedores. Default: /external/callback.
	ExternalCallbackPath string
}

// New crea el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithMetrics(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if deps.Health != nil {
		RegisterHealthRoutes(r, deps)
	}
	if deps.Account != nil {
		RegisterAccountRoutes(r, deps)
	}
	return r
}

// RegisterHealthRoutes registra /healthz y /metrics. Sin logging por request
// (muy frecuentes).
func RegisterHealthRoutes(r chi.Router, deps Deps) {
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Get("/healthz", deps.Health.Health.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// RegisterAccountRoutes registra las páginas de interacción.
func RegisterAccountRoutes(r chi.Router, deps Deps) {
	c := deps.Account

	r.Group(func(r chi.Router) {
		r.Use(
			mw.WithSecurityHeaders(),
			mw.WithNoStore(),
			mw.WithLogging(),
		)

		// GET /login - prompt o redirect al challenge si es external-only
		r.Get("/login", c.Login.Show)
		// POST /login - credenciales o cancelación
		r.With(rateLimit(deps.LoginLimiter)).Post("/login", c.Login.Submit)

		r.Get("/logout", c.Logout.Show)
		r.Post("/logout", c.Logout.Confirm)
		r.Get("/logged-out", c.Logout.LoggedOut)
		// GET /connect/endsession - logout iniciado por un client
		r.Get("/connect/endsession", c.Logout.EndSession)

		r.Get("/register", c.Register.Show)
		r.With(rateLimit(deps.RegisterLimiter)).Post("/register", c.Register.Submit)

		r.Get("/external/challenge", c.External.Challenge)
		callback := deps.ExternalCallbackPath
		if callback == "" {
			callback = "/external/callback"
		}
		r.Get(callback, c.External.Callback)
	})
}

func rateLimit(l rate.Limiter) func(http.Handler) http.Handler {
	return mw.WithRateLimit(mw.RateLimitConfig{
		Limiter: l,
		KeyFunc: mw.IPPathRateKey,
		Methods: []string{http.MethodPost},
	})
}
