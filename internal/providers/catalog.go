package providers

import (
	"context"
	"strings"

	"github.com/devinmiller/Identity/internal/domain/repository"
)

// Catalog expone los esquemas que se ofrecen en la página de login.
type Catalog struct {
	schemes       repository.SchemeProvider
	windowsScheme string
}

func NewCatalog(schemes repository.SchemeProvider, windowsScheme string) *Catalog {
	return &Catalog{schemes: schemes, windowsScheme: windowsScheme}
}

// ListVisible devuelve los esquemas con display name, más el esquema de
// autenticación integrada de Windows (comparación case-insensitive), que no
// lo tiene. Respeta el orden de registro.
func (c *Catalog) ListVisible(ctx context.Context) ([]repository.ProviderDescriptor, error) {
	all, err := c.schemes.ListAuthenticationSchemes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]repository.ProviderDescriptor, 0, len(all))
	for _, p := range all {
		if strings.TrimSpace(p.DisplayName) != "" ||
			(c.windowsScheme != "" && strings.EqualFold(p.Scheme, c.windowsScheme)) {
			out = append(out, p)
		}
	}
	return out, nil
}
