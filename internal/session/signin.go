package session

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/devinmiller/Identity/internal/cache"
	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/observability/logger"
)

// LockoutConfig: MaxFailures fallos dentro de Window bloquean el username
// hasta que la ventana expira.
type LockoutConfig struct {
	MaxFailures int
	Window      time.Duration
}

type SignInManager struct {
	users    repository.UserRepository
	sessions *Manager
	cache    cache.Client
	lockout  LockoutConfig
}

func NewSignInManager(users repository.UserRepository, sessions *Manager, c cache.Client, lc LockoutConfig) *SignInManager {
	if lc.MaxFailures <= 0 {
		lc.MaxFailures = 5
	}
	if lc.Window <= 0 {
		lc.Window = 5 * time.Minute
	}
	return &SignInManager{users: users, sessions: sessions, cache: c, lockout: lc}
}

func lockoutKey(username string) string {
	return "lockout:" + strings.ToLower(strings.TrimSpace(username))
}

func (m *SignInManager) isLockedOut(ctx context.Context, username string) (bool, error) {
	raw, err := m.cache.Get(ctx, lockoutKey(username))
	if cache.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false, nil
	}
	return n >= m.lockout.MaxFailures, nil
}

// PasswordSignIn verifica credenciales y, si son válidas, abre la sesión.
// Un error solo se devuelve cuando falla un colaborador (store o cache).
func (m *SignInManager) PasswordSignIn(ctx context.Context, w http.ResponseWriter, username, password string, persistent, lockoutOnFailure bool) (repository.SignInResult, error) {
	log := logger.From(ctx).With(logger.Component("session.signin"), logger.Op("PasswordSignIn"))

	if lockoutOnFailure {
		locked, err := m.isLockedOut(ctx, username)
		if err != nil {
			return repository.SignInResult{}, err
		}
		if locked {
			log.Debug("user locked out")
			return repository.SignInResult{IsLockedOut: true}, nil
		}
	}

	u, err := m.users.FindByName(ctx, username)
	if err != nil && !repository.IsNotFound(err) {
		return repository.SignInResult{}, err
	}
	if u == nil || !m.users.CheckPassword(u, password) {
		if lockoutOnFailure {
			if _, err := m.cache.Incr(ctx, lockoutKey(username), m.lockout.Window); err != nil {
				log.Warn("failed to count login failure", logger.Err(err))
			}
		}
		return repository.SignInResult{}, nil
	}

	if lockoutOnFailure {
		_ = m.cache.Delete(ctx, lockoutKey(username))
	}

	s, err := m.sessions.SignIn(ctx, w, Principal{
		SubjectID:        u.ID,
		Username:         u.Username,
		IdentityProvider: repository.LocalIdentityProvider,
	}, persistent)
	if err != nil {
		return repository.SignInResult{}, err
	}
	return repository.SignInResult{Succeeded: true, User: u, Session: s}, nil
}

// SignIn abre sesión para un usuario ya verificado (registro).
func (m *SignInManager) SignIn(ctx context.Context, w http.ResponseWriter, u *repository.User, persistent bool) error {
	_, err := m.sessions.SignIn(ctx, w, Principal{
		SubjectID:        u.ID,
		Username:         u.Username,
		IdentityProvider: repository.LocalIdentityProvider,
	}, persistent)
	return err
}
