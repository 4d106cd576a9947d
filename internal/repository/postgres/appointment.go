package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

const appointmentColumns = `id, patient_id, staff_id, service_type_code, start_at, end_at, status, reason, created_at`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

// CreateIfNoConflict serializes bookings per staff member with a transaction-scoped
// advisory lock, checks for a half-open overlap and inserts. The exclusion
// constraint on the table backs this up; its violation also maps to Conflict.
func (r *appointmentRepository) CreateIfNoConflict(ctx context.Context, a *model.Appointment) (err error) {
	defer r.observe("appointment_book", time.Now(), &err)

	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, a.StaffID); err != nil {
			return fmt.Errorf("failed to lock staff schedule: %w", err)
		}

		var conflicting int64
		err := tx.GetContext(ctx, &conflicting, `
			SELECT COUNT(*) FROM appointments
			WHERE staff_id = $1
			  AND status <> 'cancelled'
			  AND start_at < $3
			  AND end_at > $2
		`, a.StaffID, a.StartAt, a.EndAt)
		if err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}
		if conflicting > 0 {
			return apperrors.Conflict("time slot conflicts with an existing appointment", nil)
		}

		query := `
			INSERT INTO appointments (patient_id, staff_id, service_type_code, start_at, end_at, status, reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`
		return tx.QueryRowxContext(ctx, query,
			a.PatientID,
			a.StaffID,
			a.ServiceTypeCode,
			a.StartAt,
			a.EndAt,
			a.Status,
			a.Reason,
		).Scan(&a.ID, &a.CreatedAt)
	})
	return mapError(err, "appointment")
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	var a model.Appointment
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, mapError(err, "appointment")
	}
	return &a, nil
}

// UpdateStatus changes an appointment's status. Moving a cancelled
// appointment back to a live status re-runs the staff overlap check under
// the same advisory lock as booking.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) (_ *model.Appointment, err error) {
	defer r.observe("appointment_update_status", time.Now(), &err)

	var a model.Appointment
	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var current model.Appointment
		if err := tx.GetContext(ctx, &current, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id); err != nil {
			return err
		}

		if current.Status == model.AppointmentStatusCancelled && status != model.AppointmentStatusCancelled {
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, current.StaffID); err != nil {
				return fmt.Errorf("failed to lock staff schedule: %w", err)
			}
			var conflicting int64
			err := tx.GetContext(ctx, &conflicting, `
				SELECT COUNT(*) FROM appointments
				WHERE staff_id = $1
				  AND id <> $2
				  AND status <> 'cancelled'
				  AND start_at < $4
				  AND end_at > $3
			`, current.StaffID, id, current.StartAt, current.EndAt)
			if err != nil {
				return fmt.Errorf("failed to check conflicts: %w", err)
			}
			if conflicting > 0 {
				return apperrors.Conflict("time slot conflicts with an existing appointment", nil)
			}
		}

		return tx.GetContext(ctx, &a, `UPDATE appointments SET status = $1 WHERE id = $2 RETURNING `+appointmentColumns, status, id)
	})
	if err != nil {
		return nil, mapError(err, "appointment")
	}
	return &a, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	var args []interface{}

	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		query += fmt.Sprintf(" AND staff_id = $%d", len(args))
	}
	query += " ORDER BY start_at DESC, id DESC"

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListBetween(ctx context.Context, staffID int64, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE staff_id = $1
		  AND status <> 'cancelled'
		  AND start_at < $3
		  AND end_at > $2
		ORDER BY start_at
	`
	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, staffID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list staff appointments: %w", err)
	}
	return appointments, nil
}
