package postgres

import (
	"context"
	"fmt"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

const blockColumns = `id, staff_id, weekday, TO_CHAR(start_time, 'HH24:MI') AS start_time,
	TO_CHAR(end_time, 'HH24:MI') AS end_time, created_at`

type availabilityRepository struct {
	BaseRepository
}

func NewAvailabilityRepository(base BaseRepository) repository.AvailabilityRepository {
	return &availabilityRepository{base}
}

func (r *availabilityRepository) Create(ctx context.Context, b *model.AvailabilityBlock) error {
	query := `
		INSERT INTO availability_blocks (staff_id, weekday, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, b.StaffID, b.Weekday, b.StartTime, b.EndTime).Scan(&b.ID, &b.CreatedAt)
	return mapError(err, "availability block")
}

func (r *availabilityRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM availability_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete availability block: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("availability block", nil)
	}
	return nil
}

func (r *availabilityRepository) ListByStaff(ctx context.Context, staffID int64) ([]*model.AvailabilityBlock, error) {
	blocks := []*model.AvailabilityBlock{}
	query := `SELECT ` + blockColumns + ` FROM availability_blocks WHERE staff_id = $1 ORDER BY weekday, start_time`
	if err := r.db.SelectContext(ctx, &blocks, query, staffID); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return blocks, nil
}

func (r *availabilityRepository) ListForWeekday(ctx context.Context, staffID int64, weekday int) ([]*model.AvailabilityBlock, error) {
	blocks := []*model.AvailabilityBlock{}
	query := `SELECT ` + blockColumns + ` FROM availability_blocks WHERE staff_id = $1 AND weekday = $2 ORDER BY start_time`
	if err := r.db.SelectContext(ctx, &blocks, query, staffID, weekday); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return blocks, nil
}
