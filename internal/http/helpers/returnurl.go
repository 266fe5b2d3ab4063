package helpers

// IsLocalURL indica si raw es seguro como destino de redirect.
//
// Local es: vacío, un path absoluto de la app ("/x", nunca "//host" ni "/\host"),
// o un path relativo a la raíz virtual ("~/x"). Cualquier caracter de control
// invalida la URL. Todo lo que tenga scheme o host es externo.
func IsLocalURL(raw string) bool {
	if raw == "" {
		return true
	}

	switch {
	case raw[0] == '/':
		if len(raw) == 1 {
			return true
		}
		if raw[1] == '/' || raw[1] == '\\' {
			return false
		}
		return !hasControlChar(raw[1:])

	case len(raw) > 1 && raw[0] == '~' && raw[1] == '/':
		if len(raw) == 2 {
			return true
		}
		if raw[2] == '/' || raw[2] == '\\' {
			return false
		}
		return !hasControlChar(raw[2:])
	}
	return false
}

func hasControlChar(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f) {
			return true
		}
	}
	return false
}

// ResolveLocalURL traduce la raíz virtual "~/" a "/" para usarla en un
// Location. Vacío resuelve a "/".
func ResolveLocalURL(raw string) string {
	if raw == "" {
		return "/"
	}
	if len(raw) > 1 && raw[0] == '~' && raw[1] == '/' {
		return raw[1:]
	}
	return raw
}
