package account

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/devinmiller/Identity/internal/domain/repository"
	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	"github.com/devinmiller/Identity/internal/http/helpers"
	"github.com/devinmiller/Identity/internal/observability/logger"
)

// RegisterService crea usuarios locales y los deja logueados.
type RegisterService interface {
	Prepare(ctx context.Context, returnURL string) *dto.RegisterPrompt
	Register(ctx context.Context, w http.ResponseWriter, in dto.RegisterInput) (*dto.LoginOutcome, error)
}

// RegisterDeps contiene las dependencias del servicio de registro.
type RegisterDeps struct {
	Interaction repository.InteractionService
	Users       repository.UserRepository
	SignIn      SignInManager
	Events      repository.EventSink
	Options     Options
}

type registerService struct {
	interaction repository.InteractionService
	users       repository.UserRepository
	signIn      SignInManager
	events      repository.EventSink
	opts        Options
}

// NewRegisterService crea un nuevo RegisterService.
func NewRegisterService(d RegisterDeps) RegisterService {
	return &registerService{
		interaction: d.Interaction,
		users:       d.Users,
		signIn:      d.SignIn,
		events:      d.Events,
		opts:        d.Options,
	}
}

func (s *registerService) Prepare(_ context.Context, returnURL string) *dto.RegisterPrompt {
	return &dto.RegisterPrompt{ReturnURL: returnURL, PasswordMinLength: s.opts.PasswordPolicy.MinLength}
}

// Register valida la return URL antes de crear nada: a diferencia del login,
// un destino no local no debe dejar una cuenta creada.
func (s *registerService) Register(ctx context.Context, w http.ResponseWriter, in dto.RegisterInput) (*dto.LoginOutcome, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("RegisterService.Register"))

	if in.ReturnURL != "" && !helpers.IsLocalURL(in.ReturnURL) {
		log.Warn("refusing non-local return url on register", logger.ReturnURL(in.ReturnURL))
		return nil, ErrUnsafeRedirect
	}

	email := strings.TrimSpace(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := s.opts.PasswordPolicy.Check(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPasswordTooWeak, err)
	}

	u, err := s.users.Create(ctx, repository.CreateUserInput{Username: email, Email: email, Password: in.Password})
	if repository.IsConflict(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, unavailable("create user", err)
	}

	if err := s.signIn.SignIn(ctx, w, u, false); err != nil {
		return nil, unavailable("sign in", err)
	}

	ac, err := s.interaction.GetAuthorizationContext(ctx, in.ReturnURL)
	if err != nil {
		return nil, unavailable("get authorization context", err)
	}
	ev := repository.Event{
		Kind:        repository.EventUserLoginSuccess,
		Subject:     u.ID,
		Username:    u.Username,
		DisplayName: u.Username,
		Detail:      "registered",
	}
	if ac != nil {
		ev.ClientID = ac.ClientID
	}
	raise(ctx, s.events, ev)
	log.Info("user registered", logger.Subject(u.ID))

	return redirectAfterSignIn(in.ReturnURL)
}
