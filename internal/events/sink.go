// Package events implementa repository.EventSink: cada evento de interacción
// queda en el log de auditoría (zap) y en un contador Prometheus.
package events

import (
	"context"
	"time"

	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/metrics"
	"github.com/devinmiller/Identity/internal/observability/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Sink struct {
	log *zap.Logger
	now func() time.Time
}

var _ repository.EventSink = (*Sink)(nil)

// NewSink usa log como destino; nil usa el logger global "audit".
func NewSink(log *zap.Logger) *Sink {
	if log == nil {
		log = logger.Named("audit")
	}
	return &Sink{log: log, now: time.Now}
}

func (s *Sink) Raise(ctx context.Context, ev repository.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = s.now().UTC()
	}

	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.String("event", string(ev.Kind)),
		zap.Time("ts", ev.Time),
	}
	if ev.Subject != "" {
		fields = append(fields, logger.Subject(ev.Subject))
	}
	if ev.Username != "" {
		fields = append(fields, logger.Username(ev.Username))
	}
	if ev.DisplayName != "" {
		fields = append(fields, zap.String("display_name", ev.DisplayName))
	}
	if ev.ClientID != "" {
		fields = append(fields, logger.ClientID(ev.ClientID))
	}
	if ev.Detail != "" {
		fields = append(fields, zap.String("detail", ev.Detail))
	}
	if rid := logger.RequestIDFrom(ctx); rid != "" {
		fields = append(fields, logger.RequestID(rid))
	}

	s.log.Info("audit", fields...)
	metrics.InteractionEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
	return nil
}
