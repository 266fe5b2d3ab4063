package repository

import "time"

// Session es la sesión local autenticada del browser.
type Session struct {
	ID               string    `json:"sid"`
	SubjectID        string    `json:"sub"`
	Username         string    `json:"username"`
	IdentityProvider string    `json:"idp"`
	Persistent       bool      `json:"persistent"`
	AuthTime         time.Time `json:"auth_time"`
	Expires          time.Time `json:"expires"`
}

// IsExternal indica si la sesión fue establecida por un proveedor no local.
func (s *Session) IsExternal() bool {
	return s != nil && s.IdentityProvider != "" && s.IdentityProvider != LocalIdentityProvider
}

// SignInResult es el resultado de una verificación de credenciales.
type SignInResult struct {
	Succeeded   bool
	IsLockedOut bool
	User        *User
	Session     *Session
}
