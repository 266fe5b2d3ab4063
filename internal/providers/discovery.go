package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/devinmiller/Identity/internal/observability/logger"
	"golang.org/x/sync/errgroup"
)

// Discover resuelve, para cada esquema con issuer, los endpoints de
// autorización, token y end-session via OIDC discovery. Los valores
// configurados explícitamente tienen prioridad sobre los descubiertos.
// Corre en paralelo; el primer error cancela el resto.
func (r *Registry) Discover(ctx context.Context) error {
	log := logger.From(ctx).With(logger.Component("providers"), logger.Op("Discover"))

	r.mu.RLock()
	var pending []*scheme
	for _, name := range r.order {
		if s := r.byName[name]; s.def.Issuer != "" {
			pending = append(pending, s)
		}
	}
	r.mu.RUnlock()

	type found struct {
		auth, token, endSession string
		verifier                *oidc.IDTokenVerifier
	}
	results := make([]found, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range pending {
		i, s := i, s
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(gctx, 10*time.Second)
			defer cancel()

			p, err := oidc.NewProvider(dctx, s.def.Issuer)
			if err != nil {
				return fmt.Errorf("discover %s (%s): %w", s.def.Scheme, s.def.Issuer, err)
			}
			var extra struct {
				EndSession string `json:"end_session_endpoint"`
			}
			if err := p.Claims(&extra); err != nil {
				return fmt.Errorf("discover %s: %w", s.def.Scheme, err)
			}
			ep := p.Endpoint()
			results[i] = found{
				auth:       ep.AuthURL,
				token:      ep.TokenURL,
				endSession: extra.EndSession,
				verifier:   p.Verifier(&oidc.Config{ClientID: s.def.ClientID, SkipClientIDCheck: s.def.ClientID == ""}),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range pending {
		res := results[i]
		if s.endSession == "" {
			s.endSession = res.endSession
		}
		s.verifier = res.verifier
		if s.oauth != nil {
			if s.oauth.Endpoint.AuthURL == "" {
				s.oauth.Endpoint.AuthURL = res.auth
			}
			if s.oauth.Endpoint.TokenURL == "" {
				s.oauth.Endpoint.TokenURL = res.token
			}
		}
		log.Debug("provider discovered",
			logger.Scheme(s.def.Scheme),
			logger.Bool("sign_out", s.endSession != ""),
		)
	}
	return nil
}
