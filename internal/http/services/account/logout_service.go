package account

import (
	"context"
	"errors"
	"net/http"

	"github.com/devinmiller/Identity/internal/domain/repository"
	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	"github.com/devinmiller/Identity/internal/interaction"
	"github.com/devinmiller/Identity/internal/observability/logger"
)

// LogoutService decide si el logout necesita confirmación.
type LogoutService interface {
	Prepare(ctx context.Context, r *http.Request, logoutID string) (*dto.LogoutPrompt, error)
	// Confirm cierra la sesión (ver SignOutService.Finish).
	Confirm(ctx context.Context, w http.ResponseWriter, r *http.Request, logoutID string) (*dto.LoggedOut, error)
	// BeginClientLogout registra un logout pedido por un client y retorna el logoutId.
	BeginClientLogout(ctx context.Context, r *http.Request, in dto.EndSessionRequest) (string, error)
}

// LogoutDeps contiene las dependencias del servicio de logout.
type LogoutDeps struct {
	Interaction repository.InteractionService
	Starter     LogoutStarter
	Sessions    SessionManager
	SignOut     SignOutService
	Options     Options
}

type logoutService struct {
	interaction repository.InteractionService
	starter     LogoutStarter
	sessions    SessionManager
	signOut     SignOutService
	opts        Options
}

// NewLogoutService crea un nuevo LogoutService.
func NewLogoutService(d LogoutDeps) LogoutService {
	return &logoutService{
		interaction: d.Interaction,
		starter:     d.Starter,
		sessions:    d.Sessions,
		signOut:     d.SignOut,
		opts:        d.Options,
	}
}

// Prepare: ShowPrompt = opción global AND autenticado AND el contexto no
// declaró que el prompt sobra.
func (s *logoutService) Prepare(ctx context.Context, r *http.Request, logoutID string) (*dto.LogoutPrompt, error) {
	vm := &dto.LogoutPrompt{LogoutID: logoutID, ShowPrompt: s.opts.ShowLogoutPrompt}

	sess, err := s.sessions.Current(r)
	if err != nil {
		return nil, unavailable("load session", err)
	}
	if sess == nil {
		vm.ShowPrompt = false
		return vm, nil
	}

	lc, err := s.interaction.GetLogoutContext(ctx, logoutID)
	if err != nil {
		return nil, unavailable("get logout context", err)
	}
	if lc != nil && !lc.ShowSignoutPrompt {
		vm.ShowPrompt = false
	}
	return vm, nil
}

func (s *logoutService) Confirm(ctx context.Context, w http.ResponseWriter, r *http.Request, logoutID string) (*dto.LoggedOut, error) {
	return s.signOut.Finish(ctx, w, r, logoutID)
}

func (s *logoutService) BeginClientLogout(ctx context.Context, r *http.Request, in dto.EndSessionRequest) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("LogoutService.BeginClientLogout"))

	sess, err := s.sessions.Current(r)
	if err != nil {
		return "", unavailable("load session", err)
	}
	id, err := s.starter.BeginClientLogout(ctx, interaction.EndSessionRequest{
		ClientID:              in.ClientID,
		PostLogoutRedirectURI: in.PostLogoutRedirectURI,
		State:                 in.State,
	}, sess)
	if errors.Is(err, interaction.ErrInvalidLogoutRequest) {
		log.Debug("rejected end-session request", logger.ClientID(in.ClientID))
		return "", ErrInvalidLogoutRequest
	}
	if err != nil {
		return "", unavailable("begin client logout", err)
	}
	return id, nil
}
