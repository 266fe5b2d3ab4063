package repository

import (
	"context"
	"time"
)

// User es un usuario local.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Username string
	Email    string
	Password string // plain, se hashea al persistir
}

// UserRepository define operaciones sobre usuarios locales.
type UserRepository interface {
	// FindByName busca por username (case-insensitive). ErrNotFound si no existe.
	FindByName(ctx context.Context, username string) (*User, error)

	// Create crea el usuario. ErrConflict si el username ya existe.
	Create(ctx context.Context, in CreateUserInput) (*User, error)

	// CheckPassword verifica el password contra el hash almacenado.
	CheckPassword(u *User, plain string) bool
}
