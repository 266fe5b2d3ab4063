package account

import (
	"net/http"

	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	"github.com/devinmiller/Identity/internal/http/helpers"
	svc "github.com/devinmiller/Identity/internal/http/services/account"
	"github.com/devinmiller/Identity/internal/observability/logger"
)

// ExternalNonceCookie liga el state del challenge al browser que lo pidió.
const ExternalNonceCookie = "identity.external.nonce"

// ExternalController maneja el challenge y el callback del login externo.
type ExternalController struct {
	service svc.ExternalService
}

func NewExternalController(service svc.ExternalService) *ExternalController {
	return &ExternalController{service: service}
}

// Challenge maneja GET /external/challenge?provider=&returnUrl=.
func (c *ExternalController) Challenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ExternalController.Challenge"))

	q := r.URL.Query()
	res, err := c.service.Challenge(ctx, dto.ExternalChallenge{
		Provider:  q.Get("provider"),
		ReturnURL: q.Get("returnUrl"),
		LoginHint: q.Get("loginHint"),
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	// Lax: el callback llega como navegación top-level desde el proveedor
	http.SetCookie(w, &http.Cookie{
		Name:     ExternalNonceCookie,
		Value:    res.Nonce,
		Path:     "/",
		HttpOnly: true,
		Secure:   helpers.IsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, res.URL, http.StatusFound)
}

// Callback maneja GET /external/callback?code=&state=.
func (c *ExternalController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ExternalController.Callback"))

	var nonce string
	if ck, err := r.Cookie(ExternalNonceCookie); err == nil {
		nonce = ck.Value
	}
	// de un solo uso
	http.SetCookie(w, &http.Cookie{Name: ExternalNonceCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	q := r.URL.Query()
	out, err := c.service.Callback(ctx, w, dto.ExternalCallback{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Nonce:            nonce,
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	writeOutcome(w, r, out)
}
