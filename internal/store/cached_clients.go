package store

import (
	"context"
	"time"

	"github.com/devinmiller/Identity/internal/domain/repository"
	gocache "github.com/patrickmn/go-cache"
)

// CachedClients decora un ClientRepository con un cache go-cache.
// Cachea también los "no encontrado" para no golpear la base con client ids inválidos.
type CachedClients struct {
	next repository.ClientRepository
	c    *gocache.Cache
}

var _ repository.ClientRepository = (*CachedClients)(nil)

type cachedEntry struct {
	policy *repository.ClientPolicy
}

func NewCachedClients(next repository.ClientRepository, ttl time.Duration) *CachedClients {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedClients{next: next, c: gocache.New(ttl, 2*ttl)}
}

func (cc *CachedClients) FindEnabledClient(ctx context.Context, clientID string) (*repository.ClientPolicy, error) {
	if v, ok := cc.c.Get(clientID); ok {
		e := v.(cachedEntry)
		if e.policy == nil {
			return nil, repository.ErrNotFound
		}
		cp := *e.policy
		return &cp, nil
	}

	p, err := cc.next.FindEnabledClient(ctx, clientID)
	switch {
	case repository.IsNotFound(err):
		cc.c.SetDefault(clientID, cachedEntry{})
		return nil, err
	case err != nil:
		// errores del store no se cachean
		return nil, err
	}
	cp := *p
	cc.c.SetDefault(clientID, cachedEntry{policy: &cp})
	return p, nil
}
