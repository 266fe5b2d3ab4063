// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/devinmiller/Identity/internal/http/dto/health"
	"github.com/devinmiller/Identity/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene los checks inyectables. Un check nil se reporta "disabled".
type Deps struct {
	Version string
	// CacheCheck es crítico: sesiones, logout contexts y consentimientos viven ahí.
	CacheCheck func(ctx context.Context) error
	// DBCheck solo existe con storage postgres.
	DBCheck func(ctx context.Context) error
	// Providers informa cuántos esquemas externos hay registrados.
	Providers func(ctx context.Context) (int, error)
}

type healthService struct {
	deps Deps
	now  func() time.Time
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	return &healthService{deps: deps, now: time.Now}
}

// Services agrupa los services del dominio health.
type Services struct {
	Health HealthService
}

// NewServices crea el agregador de services health.
func NewServices(d Deps) Services {
	return Services{Health: NewHealthService(d)}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("health"),
		logger.Op("Check"),
	)

	response := dto.HealthResponse{
		Components: make(map[string]dto.HealthStatus),
		Version:    s.deps.Version,
		Timestamp:  s.now().UTC(),
	}
	hasErrors := false
	hasCriticalErrors := false

	// 1) Cache (crítico)
	if s.deps.CacheCheck != nil {
		if err := s.deps.CacheCheck(ctx); err != nil {
			response.Components["cache"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
			hasCriticalErrors = true
			log.Error("cache unavailable", logger.Err(err))
		} else {
			response.Components["cache"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components["cache"] = dto.HealthStatus{Status: "error", Message: "cache not initialized"}
		hasCriticalErrors = true
	}

	// 2) DB de clients/usuarios (no crítico: la política cacheada sigue sirviendo)
	if s.deps.DBCheck != nil {
		if err := s.deps.DBCheck(ctx); err != nil {
			response.Components["db"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
			hasErrors = true
			log.Error("db unavailable", logger.Err(err))
		} else {
			response.Components["db"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components["db"] = dto.HealthStatus{Status: "disabled", Message: "memory storage"}
	}

	// 3) Proveedores externos (informativo)
	if s.deps.Providers != nil {
		n, err := s.deps.Providers(ctx)
		if err != nil {
			response.Components["providers"] = dto.HealthStatus{Status: "error", Message: err.Error()}
			hasErrors = true
		} else {
			response.Components["providers"] = dto.HealthStatus{Status: "ok", Message: fmt.Sprintf("registered: %d", n)}
		}
	} else {
		response.Components["providers"] = dto.HealthStatus{Status: "disabled"}
	}

	switch {
	case hasCriticalErrors:
		response.Status = "unavailable"
	case hasErrors:
		response.Status = "degraded"
	default:
		response.Status = "ready"
	}
	return response
}
