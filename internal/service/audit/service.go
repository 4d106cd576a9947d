package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type clientKey struct{}

// Client identifies the network origin of a request.
type Client struct {
	IP        string
	UserAgent string
}

// WithClient stores the request origin on ctx for later audit entries.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

func ClientFrom(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}

// Log creates an audit log entry
func (s *Service) Log(ctx context.Context, actor model.Actor, action, entityType string, entityID int64, metadata model.JSONMap) error {
	client := ClientFrom(ctx)
	var actorID *int64
	if actor.ID != 0 {
		id := actor.ID
		actorID = &id
	}
	if metadata == nil {
		metadata = model.JSONMap{}
	}

	log := &model.AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
		IPAddress:  client.IP,
		UserAgent:  client.UserAgent,
	}
	return s.repo.Create(ctx, log)
}

func (s *Service) List(ctx context.Context, actor model.Actor, filter *model.AuditFilter) ([]*model.AuditLog, error) {
	if !actor.Can(model.PermAuditRead) {
		return nil, apperrors.Forbidden("")
	}
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.Cleanup(ctx, before)
}
