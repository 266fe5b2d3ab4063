// Package providers administra los esquemas de autenticación externos:
// registro, discovery OIDC, catálogo visible en la página de login,
// URLs de challenge OAuth2 y de end-session.
package providers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/devinmiller/Identity/internal/domain/repository"
	"golang.org/x/oauth2"
)

var (
	ErrUnknownScheme        = errors.New("providers: unknown scheme")
	ErrChallengeUnsupported = errors.New("providers: scheme has no authorization endpoint")
	ErrSignOutUnsupported   = errors.New("providers: scheme has no end-session endpoint")
	ErrNoIDToken            = errors.New("providers: token response has no id_token")
	ErrNoVerifier           = errors.New("providers: scheme was not discovered, cannot verify id_token")
	ErrNonceMismatch        = errors.New("providers: id_token nonce mismatch")
)

// Definition es la configuración de un esquema externo.
type Definition struct {
	Scheme       string
	DisplayName  string
	Issuer       string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	EndSession   string
	Scopes       []string
}

type scheme struct {
	def        Definition
	oauth      *oauth2.Config
	endSession string
	verifier   *oidc.IDTokenVerifier // solo tras Discover
}

// Registry implementa repository.SchemeProvider sobre esquemas configurados.
// El orden de registro es el orden de listado.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]*scheme
}

var _ repository.SchemeProvider = (*Registry)(nil)

// NewRegistry registra defs. redirectURL es el callback externo de este servicio.
func NewRegistry(defs []Definition, redirectURL string) *Registry {
	r := &Registry{byName: make(map[string]*scheme, len(defs))}
	for _, d := range defs {
		if _, dup := r.byName[d.Scheme]; dup {
			continue
		}
		s := &scheme{def: d, endSession: d.EndSession}
		if d.ClientID != "" {
			scopes := d.Scopes
			if len(scopes) == 0 {
				scopes = []string{"openid", "profile", "email"}
			}
			s.oauth = &oauth2.Config{
				ClientID:     d.ClientID,
				ClientSecret: d.ClientSecret,
				RedirectURL:  redirectURL,
				Endpoint:     oauth2.Endpoint{AuthURL: d.AuthURL, TokenURL: d.TokenURL},
				Scopes:       scopes,
			}
		}
		r.order = append(r.order, d.Scheme)
		r.byName[d.Scheme] = s
	}
	return r
}

func (r *Registry) ListAuthenticationSchemes(context.Context) ([]repository.ProviderDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repository.ProviderDescriptor, 0, len(r.order))
	for _, name := range r.order {
		s := r.byName[name]
		out = append(out, repository.ProviderDescriptor{Scheme: s.def.Scheme, DisplayName: s.def.DisplayName})
	}
	return out, nil
}

// SchemeSupportsSignOut: solo esquemas con end-session endpoint (configurado o descubierto).
func (r *Registry) SchemeSupportsSignOut(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	if !ok {
		return false, nil
	}
	return s.endSession != "", nil
}

// AuthCodeURL arma la URL de autorización del proveedor con el state y el
// nonce dados. El nonce vuelve en el id_token y se compara en Exchange.
func (r *Registry) AuthCodeURL(name, state, nonce, loginHint string) (string, error) {
	r.mu.RLock()
	s, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return "", ErrUnknownScheme
	}
	if s.oauth == nil || s.oauth.Endpoint.AuthURL == "" {
		return "", ErrChallengeUnsupported
	}
	var opts []oauth2.AuthCodeOption
	if nonce != "" {
		opts = append(opts, oidc.Nonce(nonce))
	}
	if loginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", loginHint))
	}
	return s.oauth.AuthCodeURL(state, opts...), nil
}

// EndSessionURL arma el redirect de RP-initiated logout hacia el proveedor.
func (r *Registry) EndSessionURL(name, postLogoutRedirectURI, state string) (string, error) {
	r.mu.RLock()
	s, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return "", ErrUnknownScheme
	}
	if s.endSession == "" {
		return "", ErrSignOutUnsupported
	}
	u, err := url.Parse(s.endSession)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if postLogoutRedirectURI != "" {
		q.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	}
	if s.def.ClientID != "" {
		q.Set("client_id", s.def.ClientID)
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Known indica si el esquema está registrado.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}

// ExternalIdentity es la identidad que devuelve un proveedor tras el callback.
type ExternalIdentity struct {
	Scheme  string
	Subject string
	Name    string
	Email   string
}

// Exchange canjea el code por tokens y verifica el id_token con las claves
// del issuer, incluido el nonce. Requiere que el esquema haya pasado por Discover.
func (r *Registry) Exchange(ctx context.Context, name, code, nonce string) (*ExternalIdentity, error) {
	r.mu.RLock()
	s, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownScheme
	}
	if s.oauth == nil || s.oauth.Endpoint.TokenURL == "" {
		return nil, ErrChallengeUnsupported
	}
	if s.verifier == nil {
		return nil, ErrNoVerifier
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("providers: exchange %s: %w", name, err)
	}
	rawID, _ := tok.Extra("id_token").(string)
	if rawID == "" {
		return nil, ErrNoIDToken
	}
	idt, err := s.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("providers: verify id_token %s: %w", name, err)
	}
	if nonce == "" || subtle.ConstantTimeCompare([]byte(idt.Nonce), []byte(nonce)) != 1 {
		return nil, ErrNonceMismatch
	}

	var claims struct {
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
	}
	_ = idt.Claims(&claims)
	id := &ExternalIdentity{Scheme: name, Subject: idt.Subject, Email: claims.Email, Name: claims.Name}
	if id.Name == "" {
		id.Name = claims.PreferredUsername
	}
	if id.Name == "" {
		id.Name = claims.Email
	}
	return id, nil
}
