// Package server cablea config -> cache -> stores -> servicios -> controllers
// y devuelve el handler HTTP listo para servir.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/devinmiller/Identity/internal/cache"
	"github.com/devinmiller/Identity/internal/config"
	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/events"
	accountctrl "github.com/devinmiller/Identity/internal/http/controllers/account"
	healthctrl "github.com/devinmiller/Identity/internal/http/controllers/health"
	"github.com/devinmiller/Identity/internal/http/router"
	accountsvc "github.com/devinmiller/Identity/internal/http/services/account"
	healthsvc "github.com/devinmiller/Identity/internal/http/services/health"
	"github.com/devinmiller/Identity/internal/interaction"
	"github.com/devinmiller/Identity/internal/metrics"
	"github.com/devinmiller/Identity/internal/observability/logger"
	"github.com/devinmiller/Identity/internal/providers"
	"github.com/devinmiller/Identity/internal/rate"
	"github.com/devinmiller/Identity/internal/security/password"
	tokens "github.com/devinmiller/Identity/internal/security/token"
	"github.com/devinmiller/Identity/internal/session"
	"github.com/devinmiller/Identity/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// App es el resultado del wiring.
type App struct {
	Handler http.Handler
	// Close libera cache y pool de DB. Llamar una sola vez.
	Close func() error
}

// Options ajustan el wiring (tests).
type Options struct {
	// Registerer/Gatherer de métricas; nil usa los default de prometheus.
	Registry *prometheus.Registry
	Version  string
}

// Build arma el handler a partir de la configuración ya validada.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.From(ctx).With(logger.Component("server"), logger.Op("Build"))

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*App, error) {
		_ = cleanup()
		return nil, err
	}

	// 1. Cache (sesiones, logout contexts, consentimientos, lockout)
	cc, err := cache.New(ctx, cache.Config{
		Kind:          cfg.Cache.Kind,
		RedisAddr:     cfg.Cache.Redis.Addr,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		Prefix:        cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return fail(fmt.Errorf("cache: %w", err))
	}
	closers = append(closers, cc.Close)

	// 2. Stores
	st, err := buildStores(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if st.close != nil {
		closers = append(closers, st.close)
	}
	clients := store.NewCachedClients(st.clients, config.DurationOr(cfg.Storage.ClientCacheTTL, time.Minute))

	// 3. Proveedores externos
	baseURL := publicBaseURL(cfg)
	registry := providers.NewRegistry(providerDefs(cfg.Providers), baseURL+cfg.External.CallbackPath)
	if hasIssuer(cfg.Providers) {
		if err := registry.Discover(ctx); err != nil {
			// sin discovery el login externo queda sin verificador; el local sigue
			log.Error("provider discovery failed", logger.Err(err))
		}
	}
	catalog := providers.NewCatalog(registry, cfg.Account.WindowsAuthenticationSchemeName)

	stateKey := []byte(cfg.External.StateSigningKey)
	if len(stateKey) == 0 {
		k, err := tokens.GenerateOpaqueToken(32)
		if err != nil {
			return fail(err)
		}
		stateKey = []byte(k)
		log.Warn("external.state_signing_key not set, using an ephemeral key")
	}
	state := providers.NewStateSigner(stateKey, config.DurationOr(cfg.External.StateTTL, 10*time.Minute))

	// 4. Métricas + eventos
	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if opts.Registry != nil {
		reg, gatherer = opts.Registry, opts.Registry
	}
	if err := metrics.Register(reg); err != nil {
		return fail(fmt.Errorf("metrics: %w", err))
	}
	sink := events.NewSink(nil)

	// 5. Interacción + sesión
	ia := interaction.New(interaction.Deps{
		Cache:   cc,
		Clients: clients,
		Events:  sink,
		Config: interaction.Config{
			AuthorizeCallbackPath: cfg.Interaction.AuthorizeCallbackPath,
			LogoutContextTTL:      config.DurationOr(cfg.Interaction.LogoutContextTTL, 10*time.Minute),
			ConsentTTL:            config.DurationOr(cfg.Interaction.ConsentTTL, 5*time.Minute),
		},
	})
	sessions := session.NewManager(cc, session.CookieConfig{
		Name:        cfg.Session.CookieName,
		Domain:      cfg.Session.CookieDomain,
		SameSite:    cfg.Session.SameSite,
		Secure:      cfg.Session.Secure,
		TTL:         config.DurationOr(cfg.Session.TTL, 24*time.Hour),
		RememberTTL: config.DurationOr(cfg.Session.RememberTTL, 30*24*time.Hour),
	})
	signIn := session.NewSignInManager(st.users, sessions, cc, session.LockoutConfig{
		MaxFailures: cfg.Lockout.MaxFailures,
		Window:      config.DurationOr(cfg.Lockout.Window, 5*time.Minute),
	})

	// 6. Services + controllers
	accountServices := accountsvc.NewServices(accountsvc.Deps{
		Interaction: ia,
		Starter:     ia,
		Clients:     clients,
		Schemes:     registry,
		Catalog:     catalog,
		Sessions:    sessions,
		SignIn:      signIn,
		Users:       st.users,
		Events:      sink,
		Providers:   registry,
		State:       state,
		Options:     accountOptions(cfg, baseURL),
	})
	healthServices := healthsvc.NewServices(healthsvc.Deps{
		Version:    opts.Version,
		CacheCheck: cc.Ping,
		DBCheck:    st.ping,
		Providers: func(ctx context.Context) (int, error) {
			all, err := registry.ListAuthenticationSchemes(ctx)
			return len(all), err
		},
	})

	// 7. Rate limit de los POST de login y registro
	var loginLimiter, registerLimiter rate.Limiter
	if cfg.Rate.Enabled {
		loginLimiter = newLimiter(cc, "rl:login:", cfg.Rate.Login)
		registerLimiter = newLimiter(cc, "rl:register:", cfg.Rate.Register)
	}

	handler := router.New(router.Deps{
		Account:         accountctrl.NewControllers(accountServices),
		Health:          healthctrl.NewControllers(healthServices),
		LoginLimiter:    loginLimiter,
		RegisterLimiter: registerLimiter,
		Gatherer:        gatherer,

		ExternalCallbackPath: cfg.External.CallbackPath,
	})

	log.Info("server wired",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.Int("providers", len(cfg.Providers)),
		logger.Int("clients", len(cfg.Clients)),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
	)
	return &App{Handler: handler, Close: cleanup}, nil
}

// newLimiter usa Redis directo cuando el cache es Redis (INCR + EXPIRE
// atómico en pipeline); si no, el contador del cache en memoria.
func newLimiter(cc cache.Client, prefix string, rule config.RateRule) rate.Limiter {
	window := config.DurationOr(rule.Window, time.Minute)
	if rc, ok := cc.(*cache.Redis); ok {
		return rate.NewRedisLimiter(rc.Raw(), prefix, rule.Limit, window)
	}
	return rate.NewCacheLimiter(cc, prefix, rule.Limit, window)
}

func publicBaseURL(cfg *config.Config) string {
	if cfg.Server.BaseURL != "" {
		return strings.TrimRight(cfg.Server.BaseURL, "/")
	}
	addr := cfg.Server.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func accountOptions(cfg *config.Config, baseURL string) accountsvc.Options {
	opts := accountsvc.DefaultOptions()
	opts.AllowLocalLogin = config.BoolOr(cfg.Account.AllowLocalLogin, true)
	opts.AllowRememberLogin = config.BoolOr(cfg.Account.AllowRememberLogin, true)
	opts.ShowLogoutPrompt = config.BoolOr(cfg.Account.ShowLogoutPrompt, true)
	opts.AutomaticRedirectAfterSignOut = cfg.Account.AutomaticRedirectAfterSignOut
	opts.InvalidCredentialsErrorMessage = cfg.Account.InvalidCredentialsErrorMessage
	opts.BaseURL = baseURL
	opts.PasswordPolicy = password.Policy{MinLength: cfg.Account.PasswordMinLength}
	return opts
}

func providerDefs(ps []config.Provider) []providers.Definition {
	out := make([]providers.Definition, 0, len(ps))
	for _, p := range ps {
		out = append(out, providers.Definition{
			Scheme:       p.Scheme,
			DisplayName:  p.DisplayName,
			Issuer:       p.Issuer,
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			AuthURL:      p.AuthURL,
			TokenURL:     p.TokenURL,
			EndSession:   p.EndSession,
			Scopes:       p.Scopes,
		})
	}
	return out
}

func hasIssuer(ps []config.Provider) bool {
	for _, p := range ps {
		if p.Issuer != "" {
			return true
		}
	}
	return false
}

func clientPolicies(cs []config.Client) []repository.ClientPolicy {
	out := make([]repository.ClientPolicy, 0, len(cs))
	for _, c := range cs {
		out = append(out, repository.ClientPolicy{
			ClientID:                     c.ClientID,
			ClientName:                   c.ClientName,
			Enabled:                      config.BoolOr(c.Enabled, true),
			EnableLocalLogin:             config.BoolOr(c.EnableLocalLogin, true),
			IdentityProviderRestrictions: c.IdentityProviderRestrictions,
			RedirectURIs:                 c.RedirectURIs,
			PostLogoutRedirectURIs:       c.PostLogoutRedirectURIs,
			FrontChannelLogoutURI:        c.FrontChannelLogoutURI,
		})
	}
	return out
}
