package account

import (
	"context"
	"fmt"

	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/observability/logger"
	"github.com/devinmiller/Identity/internal/security/password"
)

// Options son los flags globales de las páginas de cuenta.
type Options struct {
	AllowLocalLogin                bool
	AllowRememberLogin             bool
	ShowLogoutPrompt               bool
	AutomaticRedirectAfterSignOut  bool
	InvalidCredentialsErrorMessage string
	// BaseURL es el origen público del servicio; se usa para el
	// post_logout_redirect_uri del sign-out externo.
	BaseURL        string
	PasswordPolicy password.Policy
}

// DefaultOptions son los valores por defecto de las páginas de cuenta.
func DefaultOptions() Options {
	return Options{
		AllowLocalLogin:                true,
		AllowRememberLogin:             true,
		ShowLogoutPrompt:               true,
		InvalidCredentialsErrorMessage: "Invalid username or password",
		PasswordPolicy:                 password.Policy{MinLength: 8},
	}
}

// Service errors
var (
	// ErrCollaboratorUnavailable envuelve cualquier fallo de un colaborador
	// (interaction, sesión, stores). No se reintenta.
	ErrCollaboratorUnavailable = fmt.Errorf("collaborator unavailable")
	// ErrUnsafeRedirect: return URL no local después de autenticar. Es fatal.
	ErrUnsafeRedirect = fmt.Errorf("unsafe return url")

	ErrInvalidLogoutRequest = fmt.Errorf("invalid logout request")

	ErrInvalidEmail     = fmt.Errorf("invalid email")
	ErrPasswordMismatch = fmt.Errorf("passwords do not match")
	ErrPasswordTooWeak  = fmt.Errorf("password too weak")
	ErrUsernameTaken    = fmt.Errorf("username already taken")

	ErrMissingProvider     = fmt.Errorf("provider is required")
	ErrUnknownProvider     = fmt.Errorf("unknown provider")
	ErrProviderUnsupported = fmt.Errorf("provider does not support this operation")
	ErrInvalidState        = fmt.Errorf("invalid external login state")
	ErrExternalDenied      = fmt.Errorf("external provider returned an error")
	ErrExternalFailed      = fmt.Errorf("external login failed")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCollaboratorUnavailable, op, err)
}

// raise emite el evento sin cortar el flujo si el sink falla.
func raise(ctx context.Context, sink repository.EventSink, ev repository.Event) {
	if sink == nil {
		return
	}
	if err := sink.Raise(ctx, ev); err != nil {
		logger.From(ctx).Warn("failed to raise event",
			logger.String("event", string(ev.Kind)), logger.Err(err))
	}
}
