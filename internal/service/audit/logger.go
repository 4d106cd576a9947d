package audit

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/unihealth/care-api/internal/model"
)

// Recorder writes audit entries without failing the calling operation.
type Recorder interface {
	Record(ctx context.Context, actor model.Actor, action, entityType string, entityID int64, metadata model.JSONMap)
}

type AuditLogger struct {
	service *Service
}

func NewAuditLogger(service *Service) *AuditLogger {
	return &AuditLogger{
		service: service,
	}
}

// Record logs and swallows storage failures; a nil logger records nothing.
func (l *AuditLogger) Record(ctx context.Context, actor model.Actor, action, entityType string, entityID int64, metadata model.JSONMap) {
	if l == nil || l.service == nil {
		return
	}
	if err := l.service.Log(ctx, actor, action, entityType, entityID, metadata); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Int64("actor_id", actor.ID).
			Str("action", action).
			Str("entity_type", entityType).
			Int64("entity_id", entityID).
			Msg("failed to write audit log")
	}
}
