package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
)

const alertColumns = `id, patient_id, alert_type_code, status, latitude, longitude, description,
	created_at, assigned_to_id, resolved_at, source`

type alertRepository struct {
	BaseRepository
}

func NewAlertRepository(base BaseRepository) repository.AlertRepository {
	return &alertRepository{base}
}

func (r *alertRepository) Create(ctx context.Context, a *model.Alert, ev *model.AlertEvent) (err error) {
	defer r.observe("alert_create", time.Now(), &err)

	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO alerts (patient_id, alert_type_code, status, latitude, longitude, description, created_at, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		if err := tx.QueryRowxContext(ctx, query,
			a.PatientID,
			a.AlertTypeCode,
			a.Status,
			a.Latitude,
			a.Longitude,
			a.Description,
			a.CreatedAt,
			a.Source,
		).Scan(&a.ID); err != nil {
			return err
		}
		ev.AlertID = a.ID
		return insertEvent(ctx, tx, ev)
	})
	return mapError(err, "alert")
}

func (r *alertRepository) Get(ctx context.Context, id int64) (*model.Alert, error) {
	var a model.Alert
	if err := r.db.GetContext(ctx, &a, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "alert")
	}
	return &a, nil
}

func (r *alertRepository) Transition(
	ctx context.Context,
	id int64,
	fn func(*model.Alert) ([]*model.AlertEvent, error),
) (alert *model.Alert, events []*model.AlertEvent, err error) {
	defer r.observe("alert_transition", time.Now(), &err)

	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var a model.Alert
		if err := tx.GetContext(ctx, &a, `SELECT `+alertColumns+` FROM alerts WHERE id = $1 FOR UPDATE`, id); err != nil {
			return err
		}

		evs, err := fn(&a)
		if err != nil {
			return err
		}
		alert = &a
		if len(evs) == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE alerts SET status = $1, assigned_to_id = $2, resolved_at = $3
			WHERE id = $4
		`, a.Status, a.AssignedToID, a.ResolvedAt, a.ID); err != nil {
			return fmt.Errorf("failed to update alert: %w", err)
		}
		for _, ev := range evs {
			ev.AlertID = a.ID
			if err := insertEvent(ctx, tx, ev); err != nil {
				return err
			}
		}
		events = evs
		return nil
	})
	if err != nil {
		return nil, nil, mapError(err, "alert")
	}
	return alert, events, nil
}

func (r *alertRepository) AddEvent(ctx context.Context, ev *model.AlertEvent) error {
	return mapError(insertEvent(ctx, r.db, ev), "alert")
}

func (r *alertRepository) List(ctx context.Context, patientID *int64) ([]*model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts`
	var args []interface{}
	if patientID != nil {
		query += ` WHERE patient_id = $1`
		args = append(args, *patientID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	alerts := []*model.Alert{}
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

func (r *alertRepository) Events(ctx context.Context, alertID int64) ([]*model.AlertEvent, error) {
	events := []*model.AlertEvent{}
	query := `
		SELECT id, alert_id, actor_id, event_type, detail, created_at
		FROM alert_events
		WHERE alert_id = $1
		ORDER BY created_at, id
	`
	if err := r.db.SelectContext(ctx, &events, query, alertID); err != nil {
		return nil, fmt.Errorf("failed to list alert events: %w", err)
	}
	return events, nil
}

func insertEvent(ctx context.Context, q sqlx.QueryerContext, ev *model.AlertEvent) error {
	query := `
		INSERT INTO alert_events (alert_id, actor_id, event_type, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := q.QueryRowxContext(ctx, query, ev.AlertID, ev.ActorID, ev.Type, ev.Detail, ev.CreatedAt).Scan(&ev.ID); err != nil {
		return fmt.Errorf("failed to insert alert event: %w", err)
	}
	return nil
}
