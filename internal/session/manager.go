// Package session maneja la sesión local del browser (cookie "sid" + payload
// en el cache) y la verificación de credenciales con lockout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/devinmiller/Identity/internal/cache"
	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/observability/logger"
	tokens "github.com/devinmiller/Identity/internal/security/token"
)

var ErrSessionFailed = errors.New("session: failed to create session")

// Manager guarda sesiones bajo "sid:" + sha256(session id); el id crudo solo
// viaja en la cookie.
type Manager struct {
	cache cache.Client
	cfg   CookieConfig
	now   func() time.Time
}

func NewManager(c cache.Client, cfg CookieConfig) *Manager {
	if cfg.Name == "" {
		cfg.Name = "sid"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.RememberTTL <= 0 {
		cfg.RememberTTL = 30 * 24 * time.Hour
	}
	return &Manager{cache: c, cfg: cfg, now: time.Now}
}

func sessionKey(id string) string { return "sid:" + tokens.SHA256Base64URL(id) }

// Current devuelve la sesión del request o nil si no hay una válida.
func (m *Manager) Current(r *http.Request) (*repository.Session, error) {
	ck, err := r.Cookie(m.cfg.Name)
	if err != nil || ck.Value == "" {
		return nil, nil
	}
	raw, err := m.cache.Get(r.Context(), sessionKey(ck.Value))
	if cache.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	var s repository.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logger.From(r.Context()).Warn("corrupt session payload", logger.Err(err))
		return nil, nil
	}
	if !s.Expires.IsZero() && m.now().After(s.Expires) {
		return nil, nil
	}
	s.ID = ck.Value
	return &s, nil
}

// Principal es la identidad con la que se abre una sesión.
type Principal struct {
	SubjectID        string
	Username         string
	IdentityProvider string
}

// SignIn crea la sesión y setea la cookie.
func (m *Manager) SignIn(ctx context.Context, w http.ResponseWriter, p Principal, persistent bool) (*repository.Session, error) {
	id, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return nil, ErrSessionFailed
	}
	if p.IdentityProvider == "" {
		p.IdentityProvider = repository.LocalIdentityProvider
	}

	ttl := m.cfg.TTL
	if persistent {
		ttl = m.cfg.RememberTTL
	}
	now := m.now().UTC()
	s := &repository.Session{
		ID:               id,
		SubjectID:        p.SubjectID,
		Username:         p.Username,
		IdentityProvider: p.IdentityProvider,
		Persistent:       persistent,
		AuthTime:         now,
		Expires:          now.Add(ttl),
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("session: encode: %w", err)
	}
	if err := m.cache.Set(ctx, sessionKey(id), string(b), ttl); err != nil {
		logger.From(ctx).Error("failed to store session in cache", logger.Err(err))
		return nil, ErrSessionFailed
	}

	cookieTTL := time.Duration(0)
	if persistent {
		cookieTTL = ttl
	}
	http.SetCookie(w, buildCookie(m.cfg, id, cookieTTL))
	return s, nil
}

// SignOut expira la cookie y borra la sesión del cache. Si el borrado falla
// la cookie igual se expira, pero el error se devuelve: la sesión sigue viva
// del lado servidor para quien tenga el id.
func (m *Manager) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, buildDeletionCookie(m.cfg))
	ck, err := r.Cookie(m.cfg.Name)
	if err != nil || ck.Value == "" {
		return nil
	}
	if err := m.cache.Delete(ctx, sessionKey(ck.Value)); err != nil && !cache.IsNotFound(err) {
		logger.From(ctx).Error("failed to delete session from cache", logger.Err(err))
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
