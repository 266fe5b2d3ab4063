package repository

import "context"

// LocalIdentityProvider es el identificador del proveedor local (usuario/password).
const LocalIdentityProvider = "local"

// AuthorizationContext describe una solicitud de autorización pendiente que
// espera interacción del usuario (la "pending transaction").
// Es de solo lectura y vive lo que dura un round-trip del browser.
type AuthorizationContext struct {
	ClientID    string
	IdP         string // proveedor forzado (acr_values idp:<scheme>), vacío si no hay
	LoginHint   string
	RedirectURI string
	Scopes      []string
	Prompt      string
	ReturnURL   string // la return URL de la que se derivó el contexto
}

// ConsentResponse es la respuesta de consentimiento que se devuelve al runtime.
type ConsentResponse struct {
	Denied          bool
	ScopesConsented []string
	RememberConsent bool
}

// ConsentDenied es la respuesta usada cuando el usuario cancela el login.
var ConsentDenied = ConsentResponse{Denied: true}

// LogoutContext es la información de un logout en curso.
type LogoutContext struct {
	LogoutID              string `json:"logout_id"`
	ClientID              string `json:"client_id,omitempty"`
	ClientName            string `json:"client_name,omitempty"`
	PostLogoutRedirectURI string `json:"post_logout_redirect_uri,omitempty"`
	SignOutIFrameURL      string `json:"signout_iframe_url,omitempty"`
	SubjectID             string `json:"sub,omitempty"`
	SessionID             string `json:"sid,omitempty"`
	IdentityProvider      string `json:"idp,omitempty"`
	ShowSignoutPrompt     bool   `json:"show_signout_prompt"`
}

// InteractionService es la superficie pública del runtime del identity provider
// que consume la capa de interacción.
type InteractionService interface {
	// GetAuthorizationContext retorna el contexto pendiente para la return URL,
	// o nil si la URL no corresponde a una solicitud de autorización válida.
	GetAuthorizationContext(ctx context.Context, returnURL string) (*AuthorizationContext, error)

	// GetLogoutContext retorna el contexto de logout; nunca retorna nil sin error.
	GetLogoutContext(ctx context.Context, logoutID string) (*LogoutContext, error)

	// CreateLogoutContext persiste un contexto de logout capturando la identidad
	// de la sesión que está por destruirse y retorna su id.
	CreateLogoutContext(ctx context.Context, s *Session) (string, error)

	// GrantConsent registra la respuesta de consentimiento para la solicitud.
	GrantConsent(ctx context.Context, ac *AuthorizationContext, resp ConsentResponse) error
}
