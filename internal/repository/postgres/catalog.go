package postgres

import (
	"context"
	"fmt"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

type catalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(base BaseRepository) repository.CatalogRepository {
	return &catalogRepository{base}
}

// table returns the catalog's table name; catalogs are a closed set so the
// name is safe to interpolate.
func table(c model.Catalog) (string, error) {
	if !c.Valid() {
		return "", apperrors.BadRequest(fmt.Sprintf("unknown catalog %q", c), nil)
	}
	return string(c), nil
}

func (r *catalogRepository) Lookup(ctx context.Context, c model.Catalog, code string) (*model.CatalogEntry, error) {
	t, err := table(c)
	if err != nil {
		return nil, err
	}
	var e model.CatalogEntry
	query := `SELECT id, code, name, active FROM ` + t + ` WHERE LOWER(code) = LOWER($1) AND active`
	if err := r.db.GetContext(ctx, &e, query, code); err != nil {
		return nil, mapError(err, "catalog entry")
	}
	return &e, nil
}

func (r *catalogRepository) ListActive(ctx context.Context, c model.Catalog) ([]*model.CatalogEntry, error) {
	t, err := table(c)
	if err != nil {
		return nil, err
	}
	entries := []*model.CatalogEntry{}
	query := `SELECT id, code, name, active FROM ` + t + ` WHERE active ORDER BY name`
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t, err)
	}
	return entries, nil
}

func (r *catalogRepository) Upsert(ctx context.Context, c model.Catalog, e *model.CatalogEntry) error {
	t, err := table(c)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ` + t + ` (code, name, active) VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active
		RETURNING id
	`
	if err := r.db.QueryRowxContext(ctx, query, e.Code, e.Name, e.Active).Scan(&e.ID); err != nil {
		return fmt.Errorf("failed to upsert %s entry: %w", t, err)
	}
	return nil
}
