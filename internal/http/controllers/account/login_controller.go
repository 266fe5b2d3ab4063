package account

import (
	"net/http"
	"net/url"

	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	httperrors "github.com/devinmiller/Identity/internal/http/errors"
	"github.com/devinmiller/Identity/internal/http/helpers"
	svc "github.com/devinmiller/Identity/internal/http/services/account"
	"github.com/devinmiller/Identity/internal/observability/logger"
)

// ChallengePath es donde el login external-only manda al browser.
const ChallengePath = "/external/challenge"

// LoginController maneja GET/POST /login.
type LoginController struct {
	service svc.LoginService
}

func NewLoginController(service svc.LoginService) *LoginController {
	return &LoginController{service: service}
}

// Show maneja GET /login?returnUrl=.
func (c *LoginController) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Show"))

	returnURL := r.URL.Query().Get("returnUrl")
	prompt, err := c.service.Prepare(ctx, returnURL)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	if prompt.IsExternalOnly {
		// el formulario local nunca se muestra
		q := url.Values{}
		q.Set("provider", prompt.ExternalLoginScheme)
		q.Set("returnUrl", returnURL)
		http.Redirect(w, r, ChallengePath+"?"+q.Encode(), http.StatusFound)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, prompt)
}

// Submit maneja POST /login. Cualquier button distinto de "login" cancela.
func (c *LoginController) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Submit"))

	if err := helpers.ParseForm(w, r); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid form"))
		return
	}
	in := dto.LoginInput{
		Action:        dto.ActionCancel,
		Username:      r.PostForm.Get("username"),
		Password:      r.PostForm.Get("password"),
		RememberLogin: formBool(r.PostForm.Get("rememberLogin")),
		ReturnURL:     r.PostForm.Get("returnUrl"),
	}
	if r.PostForm.Get("button") == "login" {
		in.Action = dto.ActionSubmit
	}

	out, err := c.service.Submit(ctx, w, in)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	writeOutcome(w, r, out)
}

func writeOutcome(w http.ResponseWriter, r *http.Request, out *dto.LoginOutcome) {
	if out.Kind == dto.OutcomeReRender {
		helpers.WriteJSON(w, http.StatusOK, out.Prompt)
		return
	}
	http.Redirect(w, r, helpers.ResolveLocalURL(out.RedirectURL), http.StatusFound)
}
