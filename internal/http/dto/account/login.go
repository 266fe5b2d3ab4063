// Package account contiene los view models y requests de las páginas de
// login, logout y registro.
package account

import "github.com/devinmiller/Identity/internal/domain/repository"

// LoginPrompt es lo que muestra GET /login.
// IsExternalOnly == !EnableLocalLogin && len(todos los proveedores) == 1;
// en ese caso nunca se renderiza el formulario local.
type LoginPrompt struct {
	ReturnURL           string                          `json:"return_url,omitempty"`
	Username            string                          `json:"username,omitempty"`
	RememberLogin       bool                            `json:"remember_login"`
	AllowRememberLogin  bool                            `json:"allow_remember_login"`
	EnableLocalLogin    bool                            `json:"enable_local_login"`
	VisibleProviders    []repository.ProviderDescriptor `json:"visible_providers"`
	IsExternalOnly      bool                            `json:"is_external_only"`
	ExternalLoginScheme string                          `json:"external_login_scheme,omitempty"`
	Errors              []string                        `json:"errors,omitempty"`
}

// LoginAction es la acción elegida en el formulario de login.
type LoginAction int

const (
	ActionSubmit LoginAction = iota
	ActionCancel
)

// LoginInput es el POST /login ya parseado.
type LoginInput struct {
	Action        LoginAction
	Username      string
	Password      string
	RememberLogin bool
	ReturnURL     string
}

// OutcomeKind es el siguiente paso después de un POST /login o /register.
type OutcomeKind int

const (
	OutcomeRedirectLocal OutcomeKind = iota
	OutcomeRedirectHome
	OutcomeDenyAndRedirect
	OutcomeReRender
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRedirectLocal:
		return "redirect_local"
	case OutcomeRedirectHome:
		return "redirect_home"
	case OutcomeDenyAndRedirect:
		return "deny_and_redirect"
	case OutcomeReRender:
		return "re_render"
	}
	return "unknown"
}

// LoginOutcome: RedirectURL se usa en los redirects, Prompt en ReRender.
type LoginOutcome struct {
	Kind        OutcomeKind
	RedirectURL string
	Prompt      *LoginPrompt
}
