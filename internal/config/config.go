package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/devinmiller/Identity/internal/validation"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr string `yaml:"addr"`
		// URL pública del servicio; base del post_logout_redirect_uri externo.
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		// TTL del cache de políticas de cliente (go-cache) delante del store.
		ClientCacheTTL string `yaml:"client_cache_ttl"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Session struct {
		CookieName   string `yaml:"cookie_name"`
		CookieDomain string `yaml:"cookie_domain"`
		SameSite     string `yaml:"same_site"` // Lax | Strict | None
		Secure       bool   `yaml:"secure"`
		TTL          string `yaml:"ttl"`
		RememberTTL  string `yaml:"remember_ttl"`
	} `yaml:"session"`

	Lockout struct {
		MaxFailures int    `yaml:"max_failures"`
		Window      string `yaml:"window"`
	} `yaml:"lockout"`

	Rate struct {
		Enabled  bool     `yaml:"enabled"`
		Login    RateRule `yaml:"login"`
		Register RateRule `yaml:"register"`
	} `yaml:"rate"`

	Account Account `yaml:"account"`

	Interaction struct {
		AuthorizeCallbackPath string `yaml:"authorize_callback_path"`
		LogoutContextTTL      string `yaml:"logout_context_ttl"`
		ConsentTTL            string `yaml:"consent_ttl"`
	} `yaml:"interaction"`

	External struct {
		StateSigningKey string `yaml:"state_signing_key"`
		StateTTL        string `yaml:"state_ttl"`
		CallbackPath    string `yaml:"callback_path"`
	} `yaml:"external"`

	Providers []Provider `yaml:"providers"`
	Clients   []Client   `yaml:"clients"`
	Users     []User     `yaml:"users"`
}

type RateRule struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

// Account: opciones de los flujos de login/logout.
type Account struct {
	AllowLocalLogin                 *bool  `yaml:"allow_local_login"`
	AllowRememberLogin              *bool  `yaml:"allow_remember_login"`
	ShowLogoutPrompt                *bool  `yaml:"show_logout_prompt"`
	AutomaticRedirectAfterSignOut   bool   `yaml:"automatic_redirect_after_sign_out"`
	WindowsAuthenticationSchemeName string `yaml:"windows_authentication_scheme_name"`
	InvalidCredentialsErrorMessage  string `yaml:"invalid_credentials_error_message"`
	PasswordMinLength               int    `yaml:"password_min_length"`
}

// Provider es un esquema de autenticación externo (OIDC / OAuth2).
type Provider struct {
	Scheme       string   `yaml:"scheme"`
	DisplayName  string   `yaml:"display_name"`
	Issuer       string   `yaml:"issuer"` // con issuer se hace discovery OIDC
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	EndSession   string   `yaml:"end_session_endpoint"`
	Scopes       []string `yaml:"scopes"`
}

type Client struct {
	ClientID                     string   `yaml:"client_id"`
	ClientName                   string   `yaml:"client_name"`
	Enabled                      *bool    `yaml:"enabled"`
	EnableLocalLogin             *bool    `yaml:"enable_local_login"`
	IdentityProviderRestrictions []string `yaml:"identity_provider_restrictions"`
	RedirectURIs                 []string `yaml:"redirect_uris"`
	PostLogoutRedirectURIs       []string `yaml:"post_logout_redirect_uris"`
	FrontChannelLogoutURI        string   `yaml:"front_channel_logout_uri"`
}

// User semilla para el store en memoria. Password en claro solo para dev;
// en otros entornos usar PasswordHash (ver `identity hash-password`).
type User struct {
	Username     string `yaml:"username"`
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// BoolOr devuelve *p o def si no fue seteado.
func BoolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// DurationOr parsea s; vacío o inválido devuelve def.
func DurationOr(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil && d > 0 {
		return d
	}
	return def
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse aplica defaults y overrides de entorno sobre el YAML dado.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Storage.ClientCacheTTL == "" {
		c.Storage.ClientCacheTTL = "1m"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "sid"
	}
	if c.Session.SameSite == "" {
		c.Session.SameSite = "Lax"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "24h"
	}
	if c.Session.RememberTTL == "" {
		c.Session.RememberTTL = "720h" // 30d
	}
	if c.Lockout.MaxFailures == 0 {
		c.Lockout.MaxFailures = 5
	}
	if c.Lockout.Window == "" {
		c.Lockout.Window = "5m"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Register.Limit == 0 {
		c.Rate.Register.Limit = 5
	}
	if c.Rate.Register.Window == "" {
		c.Rate.Register.Window = "10m"
	}
	if c.Account.WindowsAuthenticationSchemeName == "" {
		c.Account.WindowsAuthenticationSchemeName = "Windows"
	}
	if c.Account.InvalidCredentialsErrorMessage == "" {
		c.Account.InvalidCredentialsErrorMessage = "Invalid username or password"
	}
	if c.Account.PasswordMinLength == 0 {
		c.Account.PasswordMinLength = 8
	}
	if c.Interaction.AuthorizeCallbackPath == "" {
		c.Interaction.AuthorizeCallbackPath = "/connect/authorize/callback"
	}
	if c.Interaction.LogoutContextTTL == "" {
		c.Interaction.LogoutContextTTL = "10m"
	}
	if c.Interaction.ConsentTTL == "" {
		c.Interaction.ConsentTTL = "5m"
	}
	if c.External.StateTTL == "" {
		c.External.StateTTL = "10m"
	}
	if c.External.CallbackPath == "" {
		c.External.CallbackPath = "/external/callback"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("PG_DSN"); ok {
		c.Storage.DSN = v
		c.Storage.Driver = "postgres"
	}
	if v, ok := getEnvStr("STATE_SIGNING_KEY"); ok {
		c.External.StateSigningKey = v
	}
	if v, ok := getEnvBool("SESSION_SECURE"); ok {
		c.Session.Secure = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
}

// Validate revisa valores críticos. En prod exige clave de firma y cookies seguras.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}

	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.kind %q not supported", c.Cache.Kind))
	}

	switch c.Session.SameSite {
	case "Lax", "Strict", "None":
	default:
		errs = append(errs, fmt.Errorf("session.same_site %q invalid", c.Session.SameSite))
	}

	for name, s := range map[string]string{
		"session.ttl":                    c.Session.TTL,
		"session.remember_ttl":           c.Session.RememberTTL,
		"lockout.window":                 c.Lockout.Window,
		"rate.login.window":              c.Rate.Login.Window,
		"rate.register.window":           c.Rate.Register.Window,
		"interaction.logout_context_ttl": c.Interaction.LogoutContextTTL,
		"interaction.consent_ttl":        c.Interaction.ConsentTTL,
		"external.state_ttl":             c.External.StateTTL,
		"storage.client_cache_ttl":       c.Storage.ClientCacheTTL,
	} {
		if _, err := time.ParseDuration(s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if !strings.HasPrefix(c.Interaction.AuthorizeCallbackPath, "/") {
		errs = append(errs, errors.New("interaction.authorize_callback_path must start with /"))
	}

	seen := map[string]bool{}
	for i, p := range c.Providers {
		if strings.TrimSpace(p.Scheme) == "" {
			errs = append(errs, fmt.Errorf("providers[%d]: scheme is required", i))
			continue
		}
		if !validation.ValidSchemeName(p.Scheme) {
			errs = append(errs, fmt.Errorf("providers[%d]: invalid scheme %q", i, p.Scheme))
		}
		key := strings.ToLower(p.Scheme)
		if seen[key] {
			errs = append(errs, fmt.Errorf("providers[%d]: duplicate scheme %q", i, p.Scheme))
		}
		seen[key] = true
	}
	if len(c.Providers) > 0 && c.External.StateSigningKey == "" {
		errs = append(errs, errors.New("external.state_signing_key is required when providers are configured"))
	}

	clients := map[string]bool{}
	for i, cl := range c.Clients {
		if cl.ClientID == "" {
			errs = append(errs, fmt.Errorf("clients[%d]: client_id is required", i))
			continue
		}
		if clients[cl.ClientID] {
			errs = append(errs, fmt.Errorf("clients[%d]: duplicate client_id %q", i, cl.ClientID))
		}
		clients[cl.ClientID] = true
	}

	for i, u := range c.Users {
		if u.Username == "" || (u.Password == "" && u.PasswordHash == "") {
			errs = append(errs, fmt.Errorf("users[%d]: username and password or password_hash are required", i))
		}
	}

	if c.App.Env == "prod" {
		if !c.Session.Secure {
			errs = append(errs, errors.New("session.secure must be true in prod"))
		}
		for _, u := range c.Users {
			if u.Password != "" {
				errs = append(errs, fmt.Errorf("user %q: plaintext password not allowed in prod", u.Username))
			}
		}
	}

	return errors.Join(errs...)
}
