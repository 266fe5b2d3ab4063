package repository

import "context"

// ProviderDescriptor describe un esquema de autenticación externo.
type ProviderDescriptor struct {
	Scheme      string `json:"scheme"`
	DisplayName string `json:"display_name,omitempty"`
}

// SchemeProvider enumera los esquemas de autenticación registrados.
type SchemeProvider interface {
	// ListAuthenticationSchemes retorna todos los esquemas en orden estable.
	ListAuthenticationSchemes(ctx context.Context) ([]ProviderDescriptor, error)

	// SchemeSupportsSignOut indica si el esquema soporta un redirect de sign-out.
	// Un esquema desconocido retorna false sin error.
	SchemeSupportsSignOut(ctx context.Context, scheme string) (bool, error)
}
