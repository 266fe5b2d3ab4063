// Package util: helpers para no filtrar datos personales ni secretos en logs.
package util

import (
	"net/url"
	"strings"
)

// MaskEmail deja visible el primer carácter del usuario y del dominio:
// "alice@example.com" -> "a…@e….com". Sin '@' enmascara como username.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		return MaskUsername(s)
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}

// MaskUsername: "alice" -> "a…e"; hasta 3 caracteres, "***".
func MaskUsername(s string) string {
	switch {
	case s == "":
		return ""
	case strings.IndexByte(s, '@') > 0:
		return MaskEmail(s)
	case len(s) <= 3:
		return "***"
	default:
		return s[:1] + "…" + s[len(s)-1:]
	}
}

// MaskDSN reemplaza el password de un DSN URL. DSNs que no parsean se ocultan enteros.
func MaskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "***"
	}
	return u.Redacted()
}
