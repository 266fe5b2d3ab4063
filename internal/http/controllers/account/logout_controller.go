package account

import (
	"net/http"
	"net/url"

	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	httperrors "github.com/devinmiller/Identity/internal/http/errors"
	"github.com/devinmiller/Identity/internal/http/helpers"
	svc "github.com/devinmiller/Identity/internal/http/services/account"
	"github.com/devinmiller/Identity/internal/observability/logger"
	"go.uber.org/zap"
)

// LogoutController maneja /logout, /logged-out y /connect/endsession.
type LogoutController struct {
	logout   svc.LogoutService
	signOut  svc.SignOutService
	external svc.ExternalService
}

func NewLogoutController(logout svc.LogoutService, signOut svc.SignOutService, external svc.ExternalService) *LogoutController {
	return &LogoutController{logout: logout, signOut: signOut, external: external}
}

func loggedOutURL(logoutID string) string {
	return "/logged-out?logoutId=" + url.QueryEscape(logoutID)
}

// Show maneja GET /logout?logoutId=. Sin prompt, confirma directamente.
func (c *LogoutController) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logoutID := r.URL.Query().Get("logoutId")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Show"), logger.LogoutID(logoutID))

	prompt, err := c.logout.Prepare(ctx, r, logoutID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	if !prompt.ShowPrompt {
		c.confirm(w, r, log, logoutID)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, prompt)
}

// Confirm maneja POST /logout.
func (c *LogoutController) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Confirm"))

	if err := helpers.ParseForm(w, r); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid form"))
		return
	}
	c.confirm(w, r, log, r.PostForm.Get("logoutId"))
}

func (c *LogoutController) confirm(w http.ResponseWriter, r *http.Request, log *zap.Logger, logoutID string) {
	vm, err := c.logout.Confirm(r.Context(), w, r, logoutID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	if vm.TriggerExternalSignout() {
		c.redirectExternal(w, r, log, vm)
		return
	}
	http.Redirect(w, r, loggedOutURL(vm.LogoutID), http.StatusFound)
}

// LoggedOut maneja GET /logged-out?logoutId=.
func (c *LogoutController) LoggedOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logoutID := r.URL.Query().Get("logoutId")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.LoggedOut"), logger.LogoutID(logoutID))

	vm, err := c.signOut.Finish(ctx, w, r, logoutID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	if vm.TriggerExternalSignout() {
		c.redirectExternal(w, r, log, vm)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, vm)
}

func (c *LogoutController) redirectExternal(w http.ResponseWriter, r *http.Request, log *zap.Logger, vm *dto.LoggedOut) {
	target, err := c.external.SignOutRedirect(r.Context(), vm)
	if err != nil {
		// la sesión local ya se cerró; se muestra la vista local
		log.Warn("external sign-out unavailable", logger.Scheme(vm.ExternalScheme), logger.Err(err))
		vm.ExternalScheme = ""
		helpers.WriteJSON(w, http.StatusOK, vm)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// EndSession maneja GET /connect/endsession (logout iniciado por un client).
func (c *LogoutController) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.EndSession"))

	q := r.URL.Query()
	id, err := c.logout.BeginClientLogout(ctx, r, dto.EndSessionRequest{
		ClientID:              q.Get("client_id"),
		PostLogoutRedirectURI: q.Get("post_logout_redirect_uri"),
		State:                 q.Get("state"),
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	http.Redirect(w, r, "/logout?logoutId="+url.QueryEscape(id), http.StatusFound)
}
