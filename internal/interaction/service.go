// Package interaction implementa repository.InteractionService: reconoce las
// solicitudes de autorización pendientes a partir de la return URL y guarda
// en el cache las respuestas de consentimiento y los contextos de logout.
package interaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/devinmiller/Identity/internal/cache"
	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/http/helpers"
	"github.com/devinmiller/Identity/internal/observability/logger"
	tokens "github.com/devinmiller/Identity/internal/security/token"
	"github.com/devinmiller/Identity/internal/validation"
)

const (
	consentPrefix = "consent:"
	logoutPrefix  = "logout:"
)

var (
	ErrNoAuthorizationContext = errors.New("interaction: no authorization context")
	ErrInvalidLogoutRequest   = errors.New("interaction: invalid logout request")
)

type Config struct {
	AuthorizeCallbackPath string
	LogoutContextTTL      time.Duration
	ConsentTTL            time.Duration
}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Cache   cache.Client
	Clients repository.ClientRepository
	Events  repository.EventSink // opcional
	Config  Config
}

type Service struct {
	cache   cache.Client
	clients repository.ClientRepository
	events  repository.EventSink
	cfg     Config
}

var _ repository.InteractionService = (*Service)(nil)

func New(d Deps) *Service {
	cfg := d.Config
	if cfg.AuthorizeCallbackPath == "" {
		cfg.AuthorizeCallbackPath = "/connect/authorize/callback"
	}
	if cfg.LogoutContextTTL <= 0 {
		cfg.LogoutContextTTL = 10 * time.Minute
	}
	if cfg.ConsentTTL <= 0 {
		cfg.ConsentTTL = 5 * time.Minute
	}
	return &Service{cache: d.Cache, clients: d.Clients, events: d.Events, cfg: cfg}
}

// GetAuthorizationContext solo reconoce return URLs locales que apuntan al
// callback de authorize y nombran un client habilitado con redirect_uri registrada.
func (s *Service) GetAuthorizationContext(ctx context.Context, returnURL string) (*repository.AuthorizationContext, error) {
	if returnURL == "" || !helpers.IsLocalURL(returnURL) {
		return nil, nil
	}
	u, err := url.Parse(strings.TrimPrefix(returnURL, "~"))
	if err != nil || u.Path != s.cfg.AuthorizeCallbackPath {
		return nil, nil
	}

	q := u.Query()
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	if clientID == "" || redirectURI == "" {
		return nil, nil
	}

	client, err := s.clients.FindEnabledClient(ctx, clientID)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("interaction: find client: %w", err)
	}
	if !slices.Contains(client.RedirectURIs, redirectURI) {
		logger.From(ctx).Debug("redirect_uri not registered for client",
			logger.Component("interaction"), logger.ClientID(clientID))
		return nil, nil
	}

	ac := &repository.AuthorizationContext{
		ClientID:    clientID,
		LoginHint:   q.Get("login_hint"),
		RedirectURI: redirectURI,
		Scopes:      validation.FilterScopes(strings.Fields(q.Get("scope"))),
		Prompt:      q.Get("prompt"),
		ReturnURL:   returnURL,
	}
	for _, v := range strings.Fields(q.Get("acr_values")) {
		if idp, ok := strings.CutPrefix(v, "idp:"); ok && idp != "" {
			ac.IdP = idp
		}
	}
	return ac, nil
}

// consentRecord es lo que lee el endpoint de authorize al retomar la solicitud.
type consentRecord struct {
	ClientID        string    `json:"client_id"`
	Denied          bool      `json:"denied"`
	ScopesConsented []string  `json:"scopes_consented,omitempty"`
	RememberConsent bool      `json:"remember_consent"`
	CreatedAt       time.Time `json:"created_at"`
}

func consentKey(returnURL string) string {
	return consentPrefix + tokens.SHA256Base64URL(returnURL)
}

func (s *Service) GrantConsent(ctx context.Context, ac *repository.AuthorizationContext, resp repository.ConsentResponse) error {
	if ac == nil {
		return ErrNoAuthorizationContext
	}
	b, err := json.Marshal(consentRecord{
		ClientID:        ac.ClientID,
		Denied:          resp.Denied,
		ScopesConsented: resp.ScopesConsented,
		RememberConsent: resp.RememberConsent,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, consentKey(ac.ReturnURL), string(b), s.cfg.ConsentTTL); err != nil {
		return fmt.Errorf("interaction: store consent: %w", err)
	}

	if resp.Denied && s.events != nil {
		if err := s.events.Raise(ctx, repository.Event{
			Kind:     repository.EventConsentDenied,
			ClientID: ac.ClientID,
		}); err != nil {
			logger.From(ctx).Warn("raise consent_denied failed", logger.Err(err))
		}
	}
	return nil
}

// ConsentFor devuelve la respuesta registrada para returnURL. ErrNotFound si no hay.
func (s *Service) ConsentFor(ctx context.Context, returnURL string) (*repository.ConsentResponse, error) {
	raw, err := s.cache.Get(ctx, consentKey(returnURL))
	if cache.IsNotFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec consentRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("interaction: decode consent: %w", err)
	}
	return &repository.ConsentResponse{
		Denied:          rec.Denied,
		ScopesConsented: rec.ScopesConsented,
		RememberConsent: rec.RememberConsent,
	}, nil
}

// GetLogoutContext: id vacío o desconocido da un contexto vacío que pide prompt.
func (s *Service) GetLogoutContext(ctx context.Context, logoutID string) (*repository.LogoutContext, error) {
	empty := &repository.LogoutContext{LogoutID: logoutID, ShowSignoutPrompt: true}
	if logoutID == "" {
		return empty, nil
	}
	raw, err := s.cache.Get(ctx, logoutPrefix+logoutID)
	if cache.IsNotFound(err) {
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("interaction: load logout context: %w", err)
	}
	var lc repository.LogoutContext
	if err := json.Unmarshal([]byte(raw), &lc); err != nil {
		return nil, fmt.Errorf("interaction: decode logout context: %w", err)
	}
	lc.LogoutID = logoutID
	return &lc, nil
}

// CreateLogoutContext captura la identidad de la sesión antes de destruirla.
func (s *Service) CreateLogoutContext(ctx context.Context, sess *repository.Session) (string, error) {
	lc := repository.LogoutContext{ShowSignoutPrompt: true}
	if sess != nil {
		lc.SubjectID = sess.SubjectID
		lc.SessionID = sess.ID
		lc.IdentityProvider = sess.IdentityProvider
	}
	return s.store(ctx, lc)
}

// EndSessionRequest es un logout iniciado por un client (RP-initiated logout).
type EndSessionRequest struct {
	ClientID              string
	PostLogoutRedirectURI string
	State                 string
}

// BeginClientLogout valida el client y la post_logout_redirect_uri y guarda el
// contexto. Una solicitud validada no necesita prompt.
func (s *Service) BeginClientLogout(ctx context.Context, req EndSessionRequest, sess *repository.Session) (string, error) {
	lc := repository.LogoutContext{ShowSignoutPrompt: true}
	if sess != nil {
		lc.SubjectID = sess.SubjectID
		lc.SessionID = sess.ID
		lc.IdentityProvider = sess.IdentityProvider
	}

	if req.ClientID != "" {
		client, err := s.clients.FindEnabledClient(ctx, req.ClientID)
		if repository.IsNotFound(err) {
			return "", ErrInvalidLogoutRequest
		}
		if err != nil {
			return "", fmt.Errorf("interaction: find client: %w", err)
		}
		lc.ClientID = client.ClientID
		lc.ClientName = client.ClientName
		lc.SignOutIFrameURL = client.FrontChannelLogoutURI

		if req.PostLogoutRedirectURI != "" {
			if !slices.Contains(client.PostLogoutRedirectURIs, req.PostLogoutRedirectURI) {
				return "", ErrInvalidLogoutRequest
			}
			lc.PostLogoutRedirectURI = withState(req.PostLogoutRedirectURI, req.State)
		}
		lc.ShowSignoutPrompt = false
	}
	return s.store(ctx, lc)
}

func withState(uri, state string) string {
	if state == "" {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	q := u.Query()
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Service) store(ctx context.Context, lc repository.LogoutContext) (string, error) {
	id, err := tokens.GenerateOpaqueToken(24)
	if err != nil {
		return "", err
	}
	lc.LogoutID = id
	b, err := json.Marshal(lc)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, logoutPrefix+id, string(b), s.cfg.LogoutContextTTL); err != nil {
		return "", fmt.Errorf("interaction: store logout context: %w", err)
	}
	return id, nil
}
