package session

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig configura la cookie de sesión.
type CookieConfig struct {
	Name        string
	Domain      string
	SameSite    string // Lax | Strict | None
	Secure      bool
	TTL         time.Duration // sesión no persistente (vida en el cache)
	RememberTTL time.Duration // sesión persistente ("recordarme")
}

func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// buildCookie: ttl 0 produce una cookie de sesión del browser.
func buildCookie(cfg CookieConfig, value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: ParseSameSite(cfg.SameSite),
	}
	if strings.TrimSpace(cfg.Domain) != "" {
		ck.Domain = cfg.Domain
	}
	if ttl > 0 {
		ck.Expires = time.Now().Add(ttl).UTC()
		ck.MaxAge = int(ttl.Seconds())
	}
	return ck
}

func buildDeletionCookie(cfg CookieConfig) *http.Cookie {
	ck := buildCookie(cfg, "", 0)
	ck.Expires = time.Unix(0, 0).UTC()
	ck.MaxAge = -1
	return ck
}
