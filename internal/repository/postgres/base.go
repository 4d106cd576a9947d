package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "github.com/unihealth/care-api/pkg/errors"
	"github.com/unihealth/care-api/pkg/metrics"
)

// PostgreSQL error codes mapped onto AppError kinds.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeExclusionViolation  = "23P01"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

// NewBaseRepository creates a new base repository. m may be nil.
func NewBaseRepository(db *sqlx.DB, m *metrics.Metrics) BaseRepository {
	return BaseRepository{db: db, metrics: m}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// observe records a database operation started at start; use as
// `defer r.observe("op", time.Now(), &err)` with a named error result.
func (r *BaseRepository) observe(op string, start time.Time, errp *error) {
	var err error
	if errp != nil && !errors.Is(*errp, sql.ErrNoRows) && !apperrors.Is(*errp, apperrors.ErrNotFound) {
		err = *errp
	}
	r.metrics.ObserveDB(op, time.Since(start).Seconds(), err)
}

// mapError converts driver errors into AppErrors; other errors pass through.
func mapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return apperrors.Conflict(resource+" already exists", err)
		case codeExclusionViolation:
			return apperrors.Conflict("time slot conflicts with an existing appointment", err)
		case codeForeignKeyViolation:
			return apperrors.BadRequest("referenced record does not exist", err)
		case codeCheckViolation:
			return apperrors.BadRequest("value out of range", err)
		}
	}
	return err
}
