package account

import (
	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	"github.com/devinmiller/Identity/internal/http/helpers"
)

// HomeURL es el destino cuando no hay return URL.
const HomeURL = "/"

// redirectAfterSignIn aplica la regla post-autenticación: vacía -> home,
// local -> redirect, cualquier otra -> fatal. Vale haya o no transacción
// pendiente. La URL vacía se evalúa antes que IsLocalURL, que también la acepta.
func redirectAfterSignIn(returnURL string) (*dto.LoginOutcome, error) {
	if returnURL == "" {
		return &dto.LoginOutcome{Kind: dto.OutcomeRedirectHome, RedirectURL: HomeURL}, nil
	}
	if helpers.IsLocalURL(returnURL) {
		return &dto.LoginOutcome{Kind: dto.OutcomeRedirectLocal, RedirectURL: returnURL}, nil
	}
	return nil, ErrUnsafeRedirect
}
