package account

import (
	"context"
	"net/http"

	"github.com/devinmiller/Identity/internal/domain/repository"
	dto "github.com/devinmiller/Identity/internal/http/dto/account"
	"github.com/devinmiller/Identity/internal/observability/logger"
)

// SignOutService cierra la sesión local y decide si además hay que pasar por
// el sign-out del proveedor externo que la abrió.
type SignOutService interface {
	Finish(ctx context.Context, w http.ResponseWriter, r *http.Request, logoutID string) (*dto.LoggedOut, error)
}

// SignOutDeps contiene las dependencias del servicio de sign-out.
type SignOutDeps struct {
	Interaction repository.InteractionService
	Schemes     repository.SchemeProvider
	Sessions    SessionManager
	Events      repository.EventSink
	Options     Options
}

type signOutService struct {
	interaction repository.InteractionService
	schemes     repository.SchemeProvider
	sessions    SessionManager
	events      repository.EventSink
	opts        Options
}

// NewSignOutService crea un nuevo SignOutService.
func NewSignOutService(d SignOutDeps) SignOutService {
	return &signOutService{
		interaction: d.Interaction,
		schemes:     d.Schemes,
		sessions:    d.Sessions,
		events:      d.Events,
		opts:        d.Options,
	}
}

// Finish arma la vista de logged-out, y si hay sesión la cierra.
// La identidad de la sesión se lee antes del SignOut porque el contexto de
// logout creado para el sign-out externo la necesita.
func (s *signOutService) Finish(ctx context.Context, w http.ResponseWriter, r *http.Request, logoutID string) (*dto.LoggedOut, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("SignOutService.Finish"))

	lc, err := s.interaction.GetLogoutContext(ctx, logoutID)
	if err != nil {
		return nil, unavailable("get logout context", err)
	}
	vm := &dto.LoggedOut{
		AutomaticRedirectAfterSignOut: s.opts.AutomaticRedirectAfterSignOut,
		LogoutID:                      logoutID,
	}
	if lc != nil {
		vm.PostLogoutRedirectURI = lc.PostLogoutRedirectURI
		vm.SignOutIframeURL = lc.SignOutIFrameURL
		vm.ClientName = lc.ClientName
		if vm.ClientName == "" {
			vm.ClientName = lc.ClientID
		}
	}

	sess, err := s.sessions.Current(r)
	if err != nil {
		return nil, unavailable("load session", err)
	}
	if sess == nil {
		return vm, nil
	}

	if sess.IsExternal() {
		supported, err := s.schemes.SchemeSupportsSignOut(ctx, sess.IdentityProvider)
		if err != nil {
			return nil, unavailable("scheme sign-out support", err)
		}
		if supported {
			if vm.LogoutID == "" {
				// sin contexto previo: se crea uno para retomar al volver del proveedor
				id, err := s.interaction.CreateLogoutContext(ctx, sess)
				if err != nil {
					return nil, unavailable("create logout context", err)
				}
				vm.LogoutID = id
			}
			vm.ExternalScheme = sess.IdentityProvider
		}
	}

	if err := s.sessions.SignOut(ctx, w, r); err != nil {
		return nil, unavailable("sign out", err)
	}
	raise(ctx, s.events, repository.Event{
		Kind:        repository.EventUserLogoutSuccess,
		Subject:     sess.SubjectID,
		Username:    sess.Username,
		DisplayName: sess.Username,
	})
	log.Info("user signed out",
		logger.Subject(sess.SubjectID),
		logger.Bool("external_signout", vm.TriggerExternalSignout()),
	)
	return vm, nil
}
