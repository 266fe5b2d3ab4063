// Package memory implementa los repositorios sobre estructuras en memoria,
// cargadas desde la configuración.
package memory

import (
	"context"
	"sync"

	"github.com/devinmiller/Identity/internal/domain/repository"
)

type Clients struct {
	mu   sync.RWMutex
	byID map[string]repository.ClientPolicy
}

var _ repository.ClientRepository = (*Clients)(nil)

func NewClients(clients []repository.ClientPolicy) *Clients {
	m := &Clients{byID: make(map[string]repository.ClientPolicy, len(clients))}
	for _, c := range clients {
		m.byID[c.ClientID] = c
	}
	return m
}

func (m *Clients) FindEnabledClient(_ context.Context, clientID string) (*repository.ClientPolicy, error) {
	m.mu.RLock()
	c, ok := m.byID[clientID]
	m.mu.RUnlock()
	if !ok || !c.Enabled {
		return nil, repository.ErrNotFound
	}
	cp := c
	return &cp, nil
}
