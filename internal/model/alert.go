package model

import (
	"time"

	apperrors "github.com/unihealth/care-api/pkg/errors"
)

type AlertStatus string

const (
	AlertStatusPending    AlertStatus = "pending"
	AlertStatusInProgress AlertStatus = "in_progress"
	AlertStatusResolved   AlertStatus = "resolved"
)

type AlertSource string

const (
	AlertSourceApp   AlertSource = "app"
	AlertSourceKiosk AlertSource = "kiosk"
	AlertSourceAdmin AlertSource = "admin"
)

func (s AlertSource) Valid() bool {
	switch s {
	case AlertSourceApp, AlertSourceKiosk, AlertSourceAdmin:
		return true
	}
	return false
}

type AlertEventType string

const (
	AlertEventCreated       AlertEventType = "created"
	AlertEventAssigned      AlertEventType = "assigned"
	AlertEventStatusChanged AlertEventType = "status_changed"
	AlertEventNote          AlertEventType = "note"
	AlertEventAttachment    AlertEventType = "attachment"
)

// Manual reports whether staff may append the event type directly.
func (t AlertEventType) Manual() bool {
	switch t {
	case AlertEventNote, AlertEventAttachment, AlertEventStatusChanged:
		return true
	}
	return false
}

// Alert is a patient- or device-initiated request for attention.
// ResolvedAt is set iff Status is resolved; AssignedToID is set once Status leaves pending.
type Alert struct {
	ID            int64       `db:"id" json:"id"`
	PatientID     *int64      `db:"patient_id" json:"patient_id"`
	AlertTypeCode *string     `db:"alert_type_code" json:"alert_type_code"`
	Status        AlertStatus `db:"status" json:"status"`
	Latitude      *float64    `db:"latitude" json:"latitude"`
	Longitude     *float64    `db:"longitude" json:"longitude"`
	Description   string      `db:"description" json:"description"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	AssignedToID  *int64      `db:"assigned_to_id" json:"assigned_to_id"`
	ResolvedAt    *time.Time  `db:"resolved_at" json:"resolved_at"`
	Source        AlertSource `db:"source" json:"source"`
}

// AlertEvent is an append-only entry in an alert's history.
type AlertEvent struct {
	ID        int64          `db:"id" json:"id"`
	AlertID   int64          `db:"alert_id" json:"alert_id"`
	ActorID   *int64         `db:"actor_id" json:"actor_id"`
	Type      AlertEventType `db:"event_type" json:"event_type"`
	Detail    JSONMap        `db:"detail" json:"detail"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

type CreateAlertRequest struct {
	AlertTypeCode string   `json:"alert_type_code" binding:"max=32"`
	Latitude      *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude     *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	Description   string   `json:"description" binding:"max=4000"`
	Source        string   `json:"source" binding:"alertsource"`
}

type AssignAlertRequest struct {
	AssigneeID *int64 `json:"assigned_to_id" binding:"omitempty,gt=0"`
}

type AlertStatusRequest struct {
	Status AlertStatus `json:"status" binding:"required"`
}

type AlertEventRequest struct {
	Type   AlertEventType `json:"event_type" binding:"required"`
	Detail JSONMap        `json:"detail"`
}

// NewAlert builds a pending alert and its creation event.
func NewAlert(actor Actor, req CreateAlertRequest, now time.Time) (*Alert, *AlertEvent) {
	source := AlertSource(req.Source)
	if source == "" {
		source = AlertSourceApp
	}
	patientID := actor.ID
	a := &Alert{
		PatientID:   &patientID,
		Status:      AlertStatusPending,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Description: req.Description,
		CreatedAt:   now,
		Source:      source,
	}
	if req.AlertTypeCode != "" {
		code := req.AlertTypeCode
		a.AlertTypeCode = &code
	}
	return a, newEvent(actor.ID, AlertEventCreated, JSONMap{"source": string(source)}, now)
}

// Assign sets the assignee and moves a pending alert to in_progress.
// It returns the assigned event plus a status_changed event when the status moved.
func (a *Alert) Assign(actorID, assigneeID int64, now time.Time) []*AlertEvent {
	id := assigneeID
	a.AssignedToID = &id
	events := []*AlertEvent{
		newEvent(actorID, AlertEventAssigned, JSONMap{"assigned_to_id": assigneeID}, now),
	}
	if a.Status == AlertStatusPending {
		a.Status = AlertStatusInProgress
		events = append(events, newEvent(actorID, AlertEventStatusChanged,
			JSONMap{"from": string(AlertStatusPending), "status": string(AlertStatusInProgress)}, now))
	}
	return events
}

// SetStatus moves the alert to target. Setting the current status is a no-op
// that returns no events. Resolved is terminal.
func (a *Alert) SetStatus(actorID int64, target AlertStatus, now time.Time) ([]*AlertEvent, error) {
	if target != AlertStatusInProgress && target != AlertStatusResolved {
		return nil, apperrors.Validation("status must be in_progress or resolved")
	}
	if target == a.Status {
		return nil, nil
	}
	if a.Status == AlertStatusResolved {
		return nil, apperrors.Conflict("alert is already resolved", nil)
	}

	from := a.Status
	if a.AssignedToID == nil {
		id := actorID
		a.AssignedToID = &id
	}
	a.Status = target
	if target == AlertStatusResolved {
		resolved := now
		a.ResolvedAt = &resolved
	}
	return []*AlertEvent{
		newEvent(actorID, AlertEventStatusChanged, JSONMap{"from": string(from), "status": string(target)}, now),
	}, nil
}

// Note builds a free-form event that leaves the status untouched.
func (a *Alert) Note(actorID int64, typ AlertEventType, detail JSONMap, now time.Time) (*AlertEvent, error) {
	if !typ.Manual() {
		return nil, apperrors.Validation("event_type must be note, attachment or status_changed")
	}
	if detail == nil {
		detail = JSONMap{}
	}
	ev := newEvent(actorID, typ, detail, now)
	ev.AlertID = a.ID
	return ev, nil
}

// VisibleTo reports whether actor may read the alert.
func (a *Alert) VisibleTo(actor Actor) bool {
	if actor.Can(PermAlertReadAll) {
		return true
	}
	return a.PatientID != nil && *a.PatientID == actor.ID
}

func newEvent(actorID int64, typ AlertEventType, detail JSONMap, now time.Time) *AlertEvent {
	var actor *int64
	if actorID != 0 {
		id := actorID
		actor = &id
	}
	return &AlertEvent{
		ActorID:   actor,
		Type:      typ,
		Detail:    detail,
		CreatedAt: now,
	}
}
