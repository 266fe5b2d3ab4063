package repository

import "context"

// ClientPolicy es la política de login de un client OIDC.
// Owned by configuration storage; read-only para la capa de interacción.
type ClientPolicy struct {
	ClientID                     string
	ClientName                   string
	Enabled                      bool
	EnableLocalLogin             bool
	IdentityProviderRestrictions []string // vacío = sin restricción
	RedirectURIs                 []string
	PostLogoutRedirectURIs       []string
	FrontChannelLogoutURI        string
}

// DisplayName retorna el nombre del client o su id si no tiene nombre.
func (c *ClientPolicy) DisplayName() string {
	if c.ClientName != "" {
		return c.ClientName
	}
	return c.ClientID
}

// ClientRepository define el acceso de lectura a los clients configurados.
type ClientRepository interface {
	// FindEnabledClient retorna el client si existe y está habilitado.
	// Retorna ErrNotFound si no existe o está deshabilitado.
	FindEnabledClient(ctx context.Context, clientID string) (*ClientPolicy, error)
}
