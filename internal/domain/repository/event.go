package repository

import (
	"context"
	"time"
)

// EventKind identifica el tipo de evento de interacción.
type EventKind string

const (
	EventUserLoginSuccess  EventKind = "user_login_success"
	EventUserLoginFailure  EventKind = "user_login_failure"
	EventUserLogoutSuccess EventKind = "user_logout_success"
	EventConsentDenied     EventKind = "consent_denied"
)

// Event es una notificación emitida por los flujos.
// Detail lleva el motivo real de un fallo; nunca se muestra al usuario.
type Event struct {
	ID          string
	Kind        EventKind
	Subject     string
	Username    string
	DisplayName string
	ClientID    string
	Detail      string
	Time        time.Time
}

// EventSink recibe los eventos de interacción.
type EventSink interface {
	Raise(ctx context.Context, ev Event) error
}
