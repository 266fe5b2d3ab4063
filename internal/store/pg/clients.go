package pg

import (
	"context"
	"errors"

	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Clients struct{ pool *pgxpool.Pool }

var _ repository.ClientRepository = (*Clients)(nil)

func (r *Clients) FindEnabledClient(ctx context.Context, clientID string) (*repository.ClientPolicy, error) {
	const query = `
		SELECT client_id, client_name, enabled, enable_local_login,
		       identity_provider_restrictions, redirect_uris, post_logout_redirect_uris,
		       front_channel_logout_uri
		FROM client WHERE client_id = $1 AND enabled
	`
	var c repository.ClientPolicy
	err := r.pool.QueryRow(ctx, query, clientID).Scan(
		&c.ClientID, &c.ClientName, &c.Enabled, &c.EnableLocalLogin,
		&c.IdentityProviderRestrictions, &c.RedirectURIs, &c.PostLogoutRedirectURIs,
		&c.FrontChannelLogoutURI,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert guarda un client (lo usa el seed desde configuración).
func (r *Clients) Upsert(ctx context.Context, c repository.ClientPolicy) error {
	const query = `
		INSERT INTO client (client_id, client_name, enabled, enable_local_login,
		                    identity_provider_restrictions, redirect_uris, post_logout_redirect_uris,
		                    front_channel_logout_uri)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (client_id) DO UPDATE SET
			client_name = EXCLUDED.client_name,
			enabled = EXCLUDED.enabled,
			enable_local_login = EXCLUDED.enable_local_login,
			identity_provider_restrictions = EXCLUDED.identity_provider_restrictions,
			redirect_uris = EXCLUDED.redirect_uris,
			post_logout_redirect_uris = EXCLUDED.post_logout_redirect_uris,
			front_channel_logout_uri = EXCLUDED.front_channel_logout_uri,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query,
		c.ClientID, c.ClientName, c.Enabled, c.EnableLocalLogin,
		nonNil(c.IdentityProviderRestrictions), nonNil(c.RedirectURIs), nonNil(c.PostLogoutRedirectURIs),
		c.FrontChannelLogoutURI,
	)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
