package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/security/password"
	"github.com/google/uuid"
)

// Users guarda usuarios locales con hash argon2id.
type Users struct {
	mu     sync.RWMutex
	byName map[string]*repository.User
	params password.Params
}

var _ repository.UserRepository = (*Users)(nil)

func NewUsers(params password.Params) *Users {
	return &Users{byName: map[string]*repository.User{}, params: params}
}

func norm(username string) string { return strings.ToLower(strings.TrimSpace(username)) }

// Seed agrega un usuario con hash ya calculado.
func (m *Users) Seed(username, email, passwordHash string) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := norm(username)
	if key == "" {
		return nil, repository.ErrInvalidInput
	}
	if _, ok := m.byName[key]; ok {
		return nil, repository.ErrConflict
	}
	u := &repository.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.byName[key] = u
	return u, nil
}

func (m *Users) FindByName(_ context.Context, username string) (*repository.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byName[norm(username)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Users) Create(_ context.Context, in repository.CreateUserInput) (*repository.User, error) {
	if norm(in.Username) == "" || in.Password == "" {
		return nil, repository.ErrInvalidInput
	}
	phc, err := password.Hash(m.params, in.Password)
	if err != nil {
		return nil, err
	}
	u, err := m.Seed(in.Username, in.Email, phc)
	if err != nil {
		return nil, err
	}
	cp := *u
	return &cp, nil
}

func (m *Users) CheckPassword(u *repository.User, plain string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return password.Verify(plain, u.PasswordHash)
}
