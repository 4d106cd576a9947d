package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	"github.com/unihealth/care-api/internal/service/audit"
	"github.com/unihealth/care-api/internal/service/notification"
	apperrors "github.com/unihealth/care-api/pkg/errors"
	"github.com/unihealth/care-api/pkg/metrics"
)

type Service struct {
	repo     repository.AlertRepository
	users    repository.UserRepository
	catalogs repository.CatalogRepository
	notifier notification.Notifier
	metrics  *metrics.Metrics
	auditor  audit.Recorder
	now      func() time.Time
}

func NewService(
	repo repository.AlertRepository,
	users repository.UserRepository,
	catalogs repository.CatalogRepository,
	notifier notification.Notifier,
	m *metrics.Metrics,
	auditor audit.Recorder,
) *Service {
	if notifier == nil {
		notifier = notification.Discard{}
	}
	return &Service{
		repo:     repo,
		users:    users,
		catalogs: catalogs,
		notifier: notifier,
		metrics:  m,
		auditor:  auditor,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create raises a pending alert on behalf of the actor.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateAlertRequest) (*model.Alert, error) {
	if !actor.Can(model.PermAlertCreate) {
		return nil, apperrors.Forbidden("")
	}
	if req.Source != "" && !model.AlertSource(req.Source).Valid() {
		return nil, apperrors.Validation("source must be one of app, kiosk, admin")
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		return nil, apperrors.Validation("latitude must be within [-90, 90]")
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		return nil, apperrors.Validation("longitude must be within [-180, 180]")
	}
	if req.AlertTypeCode != "" {
		entry, err := s.catalogs.Lookup(ctx, model.CatalogAlertTypes, req.AlertTypeCode)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.Validation("unknown or inactive alert type")
			}
			return nil, fmt.Errorf("failed to look up alert type: %w", err)
		}
		req.AlertTypeCode = entry.Code
	}

	alert, created := model.NewAlert(actor, *req, s.now())
	if err := s.repo.Create(ctx, alert, created); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	s.metrics.AlertCreated(string(alert.Source))
	s.record(ctx, actor, model.AuditActionCreate, alert.ID, model.JSONMap{"source": string(alert.Source)})
	payload := map[string]interface{}{"id": alert.ID, "source": alert.Source}
	if alert.AlertTypeCode != nil {
		payload["alert_type_code"] = *alert.AlertTypeCode
	}
	s.notifier.Notify(ctx, notification.EventAlertCreated, payload)
	return alert, nil
}

// Assign hands the alert to assigneeID, or to the actor when nil.
func (s *Service) Assign(ctx context.Context, actor model.Actor, id int64, assigneeID *int64) (*model.Alert, error) {
	if !actor.Can(model.PermAlertManage) {
		return nil, apperrors.Forbidden("")
	}
	assignee := actor.ID
	if assigneeID != nil {
		assignee = *assigneeID
	}
	if assignee != actor.ID {
		user, err := s.users.Get(ctx, assignee)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.Validation("assignee does not exist")
			}
			return nil, fmt.Errorf("failed to get assignee: %w", err)
		}
		if !user.Role.IsStaff() || !user.Active {
			return nil, apperrors.Validation("assignee must be an active staff member")
		}
	}

	alert, events, err := s.repo.Transition(ctx, id, func(a *model.Alert) ([]*model.AlertEvent, error) {
		return a.Assign(actor.ID, assignee, s.now()), nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, actor, alert, events)
	s.notifier.Notify(ctx, notification.EventAlertAssigned, map[string]interface{}{
		"id":             alert.ID,
		"assigned_to_id": assignee,
	})
	return alert, nil
}

// SetStatus moves the alert to in_progress or resolved. Setting the current
// status returns the alert unchanged and publishes nothing.
func (s *Service) SetStatus(ctx context.Context, actor model.Actor, id int64, status model.AlertStatus) (*model.Alert, error) {
	if !actor.Can(model.PermAlertManage) {
		return nil, apperrors.Forbidden("")
	}
	if status != model.AlertStatusInProgress && status != model.AlertStatusResolved {
		return nil, apperrors.Validation("status must be in_progress or resolved")
	}

	alert, events, err := s.repo.Transition(ctx, id, func(a *model.Alert) ([]*model.AlertEvent, error) {
		return a.SetStatus(actor.ID, status, s.now())
	})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return alert, nil
	}

	s.afterTransition(ctx, actor, alert, events)
	s.notifier.Notify(ctx, notification.EventAlertStatus, map[string]interface{}{
		"id":     alert.ID,
		"status": alert.Status,
	})
	return alert, nil
}

// AddEvent appends a note-like event without touching the status.
func (s *Service) AddEvent(ctx context.Context, actor model.Actor, id int64, req *model.AlertEventRequest) (*model.AlertEvent, error) {
	if !actor.Can(model.PermAlertManage) {
		return nil, apperrors.Forbidden("")
	}
	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ev, err := alert.Note(actor.ID, req.Type, req.Detail, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to add alert event: %w", err)
	}

	s.record(ctx, actor, model.AuditActionUpdate, id, model.JSONMap{"event_type": string(ev.Type)})
	s.notifier.Notify(ctx, notification.EventAlertEvent, map[string]interface{}{
		"id":       id,
		"event_id": ev.ID,
		"type":     ev.Type,
	})
	return ev, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id int64) (*model.Alert, error) {
	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !alert.VisibleTo(actor) {
		return nil, apperrors.Forbidden("")
	}
	return alert, nil
}

// List returns alerts newest first; patients only see their own.
func (s *Service) List(ctx context.Context, actor model.Actor) ([]*model.Alert, error) {
	var patientID *int64
	if !actor.Can(model.PermAlertReadAll) {
		id := actor.ID
		patientID = &id
	}
	alerts, err := s.repo.List(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// Events returns the alert's history oldest first.
func (s *Service) Events(ctx context.Context, actor model.Actor, id int64) ([]*model.AlertEvent, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	events, err := s.repo.Events(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert events: %w", err)
	}
	return events, nil
}

func (s *Service) afterTransition(ctx context.Context, actor model.Actor, alert *model.Alert, events []*model.AlertEvent) {
	for _, ev := range events {
		if ev.Type == model.AlertEventStatusChanged {
			s.metrics.AlertTransition(string(alert.Status))
		}
	}
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, string(ev.Type))
	}
	s.record(ctx, actor, model.AuditActionUpdate, alert.ID, model.JSONMap{"events": types, "status": string(alert.Status)})
}

func (s *Service) record(ctx context.Context, actor model.Actor, action string, id int64, meta model.JSONMap) {
	if s.auditor != nil {
		s.auditor.Record(ctx, actor, action, model.AuditEntityAlert, id, meta)
	}
}
