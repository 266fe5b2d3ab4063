// Package account expone las páginas de login, logout, registro y login
// externo. Las vistas se devuelven como JSON.
package account

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/devinmiller/Identity/internal/http/errors"
	svc "github.com/devinmiller/Identity/internal/http/services/account"
	"github.com/devinmiller/Identity/internal/observability/logger"
	"github.com/devinmiller/Identity/internal/security/password"
	"go.uber.org/zap"
)

// writeServiceError traduce los errores de los services al catálogo HTTP.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, svc.ErrUnsafeRedirect):
		log.Error("unsafe return url", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrUnsafeRedirect)
	case errors.Is(err, svc.ErrCollaboratorUnavailable):
		log.Error("collaborator unavailable", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
	case errors.Is(err, svc.ErrInvalidLogoutRequest):
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("invalid end-session request"))
	case errors.Is(err, svc.ErrInvalidEmail):
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("email is invalid"))
	case errors.Is(err, svc.ErrPasswordMismatch):
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("passwords do not match"))
	case errors.Is(err, svc.ErrPasswordTooWeak):
		detail := "password does not meet the policy"
		var perr *password.PolicyError
		if errors.As(err, &perr) {
			detail = strings.Join(perr.Reasons, ",")
		}
		httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(detail))
	case errors.Is(err, svc.ErrUsernameTaken):
		httperrors.WriteError(w, httperrors.ErrUsernameTaken)
	case errors.Is(err, svc.ErrMissingProvider):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("provider is required"))
	case errors.Is(err, svc.ErrUnknownProvider), errors.Is(err, svc.ErrProviderUnsupported):
		httperrors.WriteError(w, httperrors.ErrUnknownProvider)
	case errors.Is(err, svc.ErrInvalidState):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid or expired state"))
	case errors.Is(err, svc.ErrExternalDenied):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("external login was cancelled"))
	case errors.Is(err, svc.ErrExternalFailed):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("external login failed"))
	default:
		log.Error("account flow error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}

// formBool acepta los valores que mandan checkboxes y clientes JSON-ish.
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}
