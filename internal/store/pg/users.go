package pg

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Users struct {
	pool   *pgxpool.Pool
	hash   func(string) (string, error)
	verify func(plain, phc string) bool
}

var _ repository.UserRepository = (*Users)(nil)

func (r *Users) FindByName(ctx context.Context, username string) (*repository.User, error) {
	const query = `
		SELECT id, username, email, password_hash, created_at
		FROM app_user WHERE LOWER(username) = LOWER($1)
	`
	var u repository.User
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, strings.TrimSpace(username)).Scan(
		&id, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.ID = id.String()
	return &u, nil
}

func (r *Users) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	name := strings.TrimSpace(in.Username)
	if name == "" || in.Password == "" {
		return nil, repository.ErrInvalidInput
	}
	phc, err := r.hash(in.Password)
	if err != nil {
		return nil, err
	}
	return r.Insert(ctx, name, in.Email, phc)
}

// Insert guarda un usuario con hash ya calculado.
func (r *Users) Insert(ctx context.Context, username, email, passwordHash string) (*repository.User, error) {
	u := &repository.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	const query = `
		INSERT INTO app_user (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Users) CheckPassword(u *repository.User, plain string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return r.verify(plain, u.PasswordHash)
}
