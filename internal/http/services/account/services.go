package account

import "github.com/devinmiller/Identity/internal/domain/repository"

// Deps contiene las dependencias para crear los services de cuenta.
type Deps struct {
	Interaction repository.InteractionService
	Starter     LogoutStarter
	Clients     repository.ClientRepository
	Schemes     repository.SchemeProvider
	Catalog     ProviderLister
	Sessions    SessionManager
	SignIn      SignInManager
	Users       repository.UserRepository
	Events      repository.EventSink
	Providers   ExternalProviders
	State       StateCodec
	Options     Options
}

// Services agrupa todos los services del dominio de cuenta.
type Services struct {
	Login    LoginService
	Logout   LogoutService
	SignOut  SignOutService
	Register RegisterService
	External ExternalService
}

// NewServices crea el agregador de services de cuenta.
func NewServices(d Deps) Services {
	signOut := NewSignOutService(SignOutDeps{
		Interaction: d.Interaction,
		Schemes:     d.Schemes,
		Sessions:    d.Sessions,
		Events:      d.Events,
		Options:     d.Options,
	})
	return Services{
		Login: NewLoginService(LoginDeps{
			Interaction: d.Interaction,
			Policies:    NewClientPolicyResolver(d.Clients),
			Catalog:     d.Catalog,
			SignIn:      d.SignIn,
			Events:      d.Events,
			Options:     d.Options,
		}),
		Logout: NewLogoutService(LogoutDeps{
			Interaction: d.Interaction,
			Starter:     d.Starter,
			Sessions:    d.Sessions,
			SignOut:     signOut,
			Options:     d.Options,
		}),
		SignOut: signOut,
		Register: NewRegisterService(RegisterDeps{
			Interaction: d.Interaction,
			Users:       d.Users,
			SignIn:      d.SignIn,
			Events:      d.Events,
			Options:     d.Options,
		}),
		External: NewExternalService(ExternalDeps{
			Interaction: d.Interaction,
			Providers:   d.Providers,
			State:       d.State,
			Sessions:    d.Sessions,
			Events:      d.Events,
			Options:     d.Options,
		}),
	}
}
