package account

import (
	"net/http"

	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	httperrors "github.com/devinmiller/Identity/internal/http/errors"
	"github.com/devinmiller/Identity/internal/http/helpers"
	svc "github.com/devinmiller/Identity/internal/http/services/account"
	"github.com/devinmiller/Identity/internal/observability/logger"
)

// RegisterController maneja GET/POST /register.
type RegisterController struct {
	service svc.RegisterService
}

func NewRegisterController(service svc.RegisterService) *RegisterController {
	return &RegisterController{service: service}
}

func (c *RegisterController) Show(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, c.service.Prepare(r.Context(), r.URL.Query().Get("returnUrl")))
}

func (c *RegisterController) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Submit"))

	if err := helpers.ParseForm(w, r); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid form"))
		return
	}
	in := dto.RegisterInput{
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirmPassword"),
		ReturnURL:       r.PostForm.Get("returnUrl"),
	}
	if in.Email == "" || in.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email and password are required"))
		return
	}

	out, err := c.service.Register(ctx, w, in)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	writeOutcome(w, r, out)
}
