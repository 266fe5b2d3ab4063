package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/devinmiller/Identity/internal/domain/repository"
	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	"github.com/devinmiller/Identity/internal/http/helpers"
	"github.com/devinmiller/Identity/internal/observability/logger"
	"github.com/devinmiller/Identity/internal/providers"
	tokens "github.com/devinmiller/Identity/internal/security/token"
	"github.com/devinmiller/Identity/internal/session"
)

// ExternalService maneja el login federado y el sign-out hacia el proveedor.
type ExternalService interface {
	// Challenge retorna la URL de autorización del proveedor y el nonce
	// que liga el state al browser.
	Challenge(ctx context.Context, in dto.ExternalChallenge) (*dto.ExternalRedirect, error)
	// Callback canjea el code, abre la sesión y aplica la regla de return URL.
	Callback(ctx context.Context, w http.ResponseWriter, in dto.ExternalCallback) (*dto.LoginOutcome, error)
	// SignOutRedirect retorna la URL de end-session del proveedor de vm.ExternalScheme.
	SignOutRedirect(ctx context.Context, vm *dto.LoggedOut) (string, error)
}

// ExternalDeps contiene las dependencias del servicio de login externo.
type ExternalDeps struct {
	Interaction repository.InteractionService
	Providers   ExternalProviders
	State       StateCodec
	Sessions    SessionManager
	Events      repository.EventSink
	Options     Options
}

type externalService struct {
	interaction repository.InteractionService
	providers   ExternalProviders
	state       StateCodec
	sessions    SessionManager
	events      repository.EventSink
	opts        Options
}

// NewExternalService crea un nuevo ExternalService.
func NewExternalService(d ExternalDeps) ExternalService {
	return &externalService{
		interaction: d.Interaction,
		providers:   d.Providers,
		state:       d.State,
		sessions:    d.Sessions,
		events:      d.Events,
		opts:        d.Options,
	}
}

func (s *externalService) Challenge(ctx context.Context, in dto.ExternalChallenge) (*dto.ExternalRedirect, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("ExternalService.Challenge"))

	provider := strings.TrimSpace(in.Provider)
	if provider == "" {
		return nil, ErrMissingProvider
	}
	returnURL := in.ReturnURL
	if returnURL == "" {
		returnURL = "~/"
	}
	if !helpers.IsLocalURL(returnURL) {
		log.Warn("refusing non-local return url on challenge", logger.ReturnURL(returnURL))
		return nil, ErrUnsafeRedirect
	}
	if !s.providers.Known(provider) {
		return nil, ErrUnknownProvider
	}

	nonce, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return nil, unavailable("generate nonce", err)
	}
	state, err := s.state.Sign(provider, returnURL, nonce)
	if err != nil {
		return nil, unavailable("sign state", err)
	}
	u, err := s.providers.AuthCodeURL(provider, state, nonce, in.LoginHint)
	if errors.Is(err, providers.ErrChallengeUnsupported) {
		return nil, ErrProviderUnsupported
	}
	if err != nil {
		return nil, unavailable("auth code url", err)
	}
	log.Debug("external challenge", logger.Scheme(provider))
	return &dto.ExternalRedirect{URL: u, Nonce: nonce}, nil
}

func (s *externalService) Callback(ctx context.Context, w http.ResponseWriter, in dto.ExternalCallback) (*dto.LoginOutcome, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("ExternalService.Callback"))

	if in.Error != "" {
		log.Info("external provider returned error",
			logger.String("error", in.Error),
			logger.String("error_description", in.ErrorDescription))
		return nil, ErrExternalDenied
	}
	claims, err := s.state.Parse(in.State, "")
	if err != nil {
		return nil, ErrInvalidState
	}
	// el state solo vale en el browser que hizo el challenge
	if in.Nonce == "" || subtle.ConstantTimeCompare([]byte(in.Nonce), []byte(claims.Nonce)) != 1 {
		log.Warn("external state not bound to this browser", logger.Scheme(claims.Scheme))
		return nil, ErrInvalidState
	}
	if in.Code == "" {
		return nil, ErrExternalFailed
	}

	id, err := s.providers.Exchange(ctx, claims.Scheme, in.Code, claims.Nonce)
	if err != nil {
		log.Warn("external code exchange failed", logger.Scheme(claims.Scheme), logger.Err(err))
		return nil, ErrExternalFailed
	}

	sess, err := s.sessions.SignIn(ctx, w, session.Principal{
		SubjectID:        id.Subject,
		Username:         id.Name,
		IdentityProvider: id.Scheme,
	}, false)
	if err != nil {
		return nil, unavailable("sign in", err)
	}

	returnURL := claims.ReturnURL
	if returnURL == "~/" {
		returnURL = ""
	}
	ac, err := s.interaction.GetAuthorizationContext(ctx, returnURL)
	if err != nil {
		return nil, unavailable("get authorization context", err)
	}
	ev := repository.Event{
		Kind:        repository.EventUserLoginSuccess,
		Subject:     sess.SubjectID,
		Username:    sess.Username,
		DisplayName: id.Name,
		Detail:      "external:" + id.Scheme,
	}
	if ac != nil {
		ev.ClientID = ac.ClientID
	}
	raise(ctx, s.events, ev)

	return redirectAfterSignIn(returnURL)
}

// SignOutRedirect vuelve a /logout con el mismo logoutId; como la sesión
// local ya no existe, ese GET confirma sin prompt y termina en logged-out.
func (s *externalService) SignOutRedirect(_ context.Context, vm *dto.LoggedOut) (string, error) {
	if !vm.TriggerExternalSignout() {
		return "", ErrProviderUnsupported
	}
	back := strings.TrimRight(s.opts.BaseURL, "/") + "/logout?logoutId=" + url.QueryEscape(vm.LogoutID)
	u, err := s.providers.EndSessionURL(vm.ExternalScheme, back, "")
	switch {
	case errors.Is(err, providers.ErrUnknownScheme), errors.Is(err, providers.ErrSignOutUnsupported):
		return "", ErrProviderUnsupported
	case err != nil:
		return "", unavailable("end session url", err)
	}
	return u, nil
}
