package account

import (
	"context"
	"net/http"
	"strings"

	"github.com/devinmiller/Identity/internal/domain/repository"
	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	"github.com/devinmiller/Identity/internal/http/helpers"
	"github.com/devinmiller/Identity/internal/observability/logger"
)

// LoginService arma la página de login y procesa el formulario.
type LoginService interface {
	// Prepare calcula qué muestra el prompt de login para la return URL.
	Prepare(ctx context.Context, returnURL string) (*dto.LoginPrompt, error)
	// Submit procesa credenciales o cancelación. ErrUnsafeRedirect es fatal.
	Submit(ctx context.Context, w http.ResponseWriter, in dto.LoginInput) (*dto.LoginOutcome, error)
}

// LoginDeps contiene las dependencias del servicio de login.
type LoginDeps struct {
	Interaction repository.InteractionService
	Policies    *ClientPolicyResolver
	Catalog     ProviderLister
	SignIn      SignInManager
	Events      repository.EventSink
	Options     Options
}

type loginService struct {
	interaction repository.InteractionService
	policies    *ClientPolicyResolver
	catalog     ProviderLister
	signIn      SignInManager
	events      repository.EventSink
	opts        Options
}

// NewLoginService crea un nuevo LoginService.
func NewLoginService(d LoginDeps) LoginService {
	return &loginService{
		interaction: d.Interaction,
		policies:    d.Policies,
		catalog:     d.Catalog,
		signIn:      d.SignIn,
		events:      d.Events,
		opts:        d.Options,
	}
}

func (s *loginService) Prepare(ctx context.Context, returnURL string) (*dto.LoginPrompt, error) {
	ac, err := s.interaction.GetAuthorizationContext(ctx, returnURL)
	if err != nil {
		return nil, unavailable("get authorization context", err)
	}
	return s.buildPrompt(ctx, returnURL, ac)
}

func (s *loginService) buildPrompt(ctx context.Context, returnURL string, ac *repository.AuthorizationContext) (*dto.LoginPrompt, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("LoginService.Prepare"))

	if ac != nil && ac.IdP != "" {
		// proveedor forzado por la transacción: único camino, sin más lookups
		p := &dto.LoginPrompt{
			ReturnURL:          returnURL,
			Username:           ac.LoginHint,
			AllowRememberLogin: s.opts.AllowRememberLogin,
			EnableLocalLogin:   false,
			VisibleProviders:   []repository.ProviderDescriptor{{Scheme: ac.IdP}},
		}
		finishPrompt(p)
		log.Debug("login restricted to forced provider", logger.Scheme(ac.IdP))
		return p, nil
	}

	visible, err := s.catalog.ListVisible(ctx)
	if err != nil {
		return nil, unavailable("list providers", err)
	}

	allowLocal := true
	if ac != nil {
		policy, err := s.policies.Resolve(ctx, ac.ClientID)
		if err != nil {
			return nil, err
		}
		if policy != nil {
			allowLocal = policy.EnableLocalLogin
			visible = helpers.RestrictProviders(visible, policy.IdentityProviderRestrictions)
		}
	}

	p := &dto.LoginPrompt{
		ReturnURL:          returnURL,
		AllowRememberLogin: s.opts.AllowRememberLogin,
		EnableLocalLogin:   allowLocal && s.opts.AllowLocalLogin,
		VisibleProviders:   visible,
	}
	if ac != nil {
		p.Username = ac.LoginHint
	}
	finishPrompt(p)
	return p, nil
}

func finishPrompt(p *dto.LoginPrompt) {
	if p.VisibleProviders == nil {
		p.VisibleProviders = []repository.ProviderDescriptor{}
	}
	p.IsExternalOnly = !p.EnableLocalLogin && len(p.VisibleProviders) == 1
	if p.IsExternalOnly {
		p.ExternalLoginScheme = p.VisibleProviders[0].Scheme
	}
}

func (s *loginService) Submit(ctx context.Context, w http.ResponseWriter, in dto.LoginInput) (*dto.LoginOutcome, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("LoginService.Submit"))

	ac, err := s.interaction.GetAuthorizationContext(ctx, in.ReturnURL)
	if err != nil {
		return nil, unavailable("get authorization context", err)
	}

	if in.Action == dto.ActionCancel {
		if ac == nil {
			return &dto.LoginOutcome{Kind: dto.OutcomeRedirectHome, RedirectURL: HomeURL}, nil
		}
		// la denegación vuelve al client como access_denied
		if err := s.interaction.GrantConsent(ctx, ac, repository.ConsentDenied); err != nil {
			return nil, unavailable("grant consent", err)
		}
		log.Info("login cancelled, consent denied", logger.ClientID(ac.ClientID))
		return &dto.LoginOutcome{Kind: dto.OutcomeDenyAndRedirect, RedirectURL: in.ReturnURL}, nil
	}

	username := strings.TrimSpace(in.Username)
	var missing []string
	if username == "" {
		missing = append(missing, "Username is required")
	}
	if in.Password == "" {
		missing = append(missing, "Password is required")
	}
	if len(missing) > 0 {
		return s.reRender(ctx, in, ac, missing)
	}

	persistent := s.opts.AllowRememberLogin && in.RememberLogin
	res, err := s.signIn.PasswordSignIn(ctx, w, username, in.Password, persistent, true)
	if err != nil {
		return nil, unavailable("password sign-in", err)
	}

	clientID := ""
	if ac != nil {
		clientID = ac.ClientID
	}

	if res.Succeeded {
		ev := repository.Event{Kind: repository.EventUserLoginSuccess, Username: username, ClientID: clientID}
		if res.User != nil {
			ev.Subject = res.User.ID
			ev.Username = res.User.Username
			ev.DisplayName = res.User.Username
		}
		raise(ctx, s.events, ev)
		out, err := redirectAfterSignIn(in.ReturnURL)
		if err != nil {
			log.Error("refusing non-local return url after login", logger.ReturnURL(in.ReturnURL))
			return nil, err
		}
		return out, nil
	}

	detail := "invalid credentials"
	if res.IsLockedOut {
		detail = "locked out"
	}
	raise(ctx, s.events, repository.Event{
		Kind:     repository.EventUserLoginFailure,
		Username: username,
		ClientID: clientID,
		Detail:   detail,
	})
	log.Debug("login failed", logger.String("reason", detail))
	return s.reRender(ctx, in, ac, []string{s.opts.InvalidCredentialsErrorMessage})
}

// reRender vuelve a armar el prompt conservando username y remember-me.
func (s *loginService) reRender(ctx context.Context, in dto.LoginInput, ac *repository.AuthorizationContext, msgs []string) (*dto.LoginOutcome, error) {
	p, err := s.buildPrompt(ctx, in.ReturnURL, ac)
	if err != nil {
		return nil, err
	}
	p.Username = in.Username
	p.RememberLogin = in.RememberLogin
	p.Errors = msgs
	return &dto.LoginOutcome{Kind: dto.OutcomeReRender, Prompt: p}, nil
}
