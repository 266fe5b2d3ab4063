package account

import svc "github.com/devinmiller/Identity/internal/http/services/account"

// Controllers agrupa los controllers de cuenta.
type Controllers struct {
	Login    *LoginController
	Logout   *LogoutController
	Register *RegisterController
	External *ExternalController
}

// NewControllers crea los controllers a partir del agregador de services.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Login:    NewLoginController(s.Login),
		Logout:   NewLogoutController(s.Logout, s.SignOut, s.External),
		Register: NewRegisterController(s.Register),
		External: NewExternalController(s.External),
	}
}
