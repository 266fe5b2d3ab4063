// Package validation contiene las reglas de nombres compartidas por config e interacción.
package validation

import "regexp"

// Scope: minúsculas, empieza y termina en [a-z0-9], en el medio [a-z0-9:_.-], 1..64.
// Válidos: openid, profile:read, a_b-c.d:scope2. Inválidos: ;hack, BAD, "bad space", :lead.
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_\.-]{0,62}[a-z0-9])?$`)

// Scheme de proveedor externo: viaja en query strings (?provider=) y en acr_values (idp:<scheme>),
// así que sin espacios ni ':'.
var schemeNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\.-]{0,63}$`)

// ValidScopeName reporta si name es un nombre de scope aceptable.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// ValidSchemeName reporta si name sirve como scheme de proveedor.
func ValidSchemeName(name string) bool {
	return schemeNameRe.MatchString(name)
}

// FilterScopes descarta los scopes inválidos y los repetidos, preservando el orden.
func FilterScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	seen := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		if !ValidScopeName(s) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
