package account

import (
	"context"

	"github.com/devinmiller/Identity/internal/domain/repository"
)

// ClientPolicyResolver busca la política de login del client de una
// transacción pendiente.
type ClientPolicyResolver struct {
	clients repository.ClientRepository
}

func NewClientPolicyResolver(clients repository.ClientRepository) *ClientPolicyResolver {
	return &ClientPolicyResolver{clients: clients}
}

// Resolve retorna nil, nil para client id vacío, inexistente o deshabilitado.
func (r *ClientPolicyResolver) Resolve(ctx context.Context, clientID string) (*repository.ClientPolicy, error) {
	if clientID == "" || r.clients == nil {
		return nil, nil
	}
	c, err := r.clients.FindEnabledClient(ctx, clientID)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("find client", err)
	}
	if c == nil || !c.Enabled {
		return nil, nil
	}
	return c, nil
}
