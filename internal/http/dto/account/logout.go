package account

// LogoutPrompt es lo que muestra GET /logout.
type LogoutPrompt struct {
	LogoutID   string `json:"logout_id,omitempty"`
	ShowPrompt bool   `json:"show_prompt"`
}

// LoggedOut es la vista de GET /logged-out.
// ExternalScheme solo se setea si la sesión venía de un proveedor externo que
// soporta sign-out; en ese caso LogoutID nunca está vacío.
type LoggedOut struct {
	PostLogoutRedirectURI         string `json:"post_logout_redirect_uri,omitempty"`
	ClientName                    string `json:"client_name,omitempty"`
	SignOutIframeURL              string `json:"signout_iframe_url,omitempty"`
	AutomaticRedirectAfterSignOut bool   `json:"automatic_redirect_after_signout"`
	LogoutID                      string `json:"logout_id,omitempty"`
	ExternalScheme                string `json:"external_scheme,omitempty"`
}

// TriggerExternalSignout indica que hay que pasar por el end-session del proveedor.
func (l *LoggedOut) TriggerExternalSignout() bool {
	return l != nil && l.ExternalScheme != ""
}

// EndSessionRequest son los parámetros de GET /connect/endsession.
type EndSessionRequest struct {
	ClientID              string
	PostLogoutRedirectURI string
	State                 string
}
