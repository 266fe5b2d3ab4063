// Package account contiene los flujos de interacción del browser: login,
// logout, sign-out federado, registro y login externo.
package account

import (
	"context"
	"net/http"

	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/interaction"
	"github.com/devinmiller/Identity/internal/providers"
	"github.com/devinmiller/Identity/internal/session"
)

// SessionManager es la sesión local del browser.
type SessionManager interface {
	// Current retorna nil, nil si el request no está autenticado.
	Current(r *http.Request) (*repository.Session, error)
	SignIn(ctx context.Context, w http.ResponseWriter, p session.Principal, persistent bool) (*repository.Session, error)
	SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// SignInManager verifica credenciales locales y abre la sesión.
type SignInManager interface {
	PasswordSignIn(ctx context.Context, w http.ResponseWriter, username, password string, persistent, lockoutOnFailure bool) (repository.SignInResult, error)
	SignIn(ctx context.Context, w http.ResponseWriter, u *repository.User, persistent bool) error
}

// ProviderLister es el catálogo de proveedores visibles en el login.
type ProviderLister interface {
	ListVisible(ctx context.Context) ([]repository.ProviderDescriptor, error)
}

// ExternalProviders arma los redirects hacia los proveedores externos.
type ExternalProviders interface {
	Known(name string) bool
	AuthCodeURL(name, state, nonce, loginHint string) (string, error)
	EndSessionURL(name, postLogoutRedirectURI, state string) (string, error)
	Exchange(ctx context.Context, name, code, nonce string) (*providers.ExternalIdentity, error)
}

// StateCodec firma el state del challenge externo.
type StateCodec interface {
	Sign(scheme, returnURL, nonce string) (string, error)
	Parse(raw, scheme string) (*providers.StateClaims, error)
}

// LogoutStarter registra un logout iniciado por un client.
type LogoutStarter interface {
	BeginClientLogout(ctx context.Context, req interaction.EndSessionRequest, sess *repository.Session) (string, error)
}

var (
	_ SessionManager    = (*session.Manager)(nil)
	_ SignInManager     = (*session.SignInManager)(nil)
	_ ProviderLister    = (*providers.Catalog)(nil)
	_ ExternalProviders = (*providers.Registry)(nil)
	_ StateCodec        = (*providers.StateSigner)(nil)
	_ LogoutStarter     = (*interaction.Service)(nil)
)
