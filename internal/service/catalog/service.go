package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

type Service struct {
	repo repository.CatalogRepository
}

func NewService(repo repository.CatalogRepository) *Service {
	return &Service{repo: repo}
}

// List returns the active entries of a catalog.
func (s *Service) List(ctx context.Context, c model.Catalog) ([]*model.CatalogEntry, error) {
	if !c.Valid() {
		return nil, apperrors.NotFound("catalog", nil)
	}
	entries, err := s.repo.ListActive(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c, err)
	}
	return entries, nil
}

// Upsert creates or updates an entry by code. Codes are stored lowercase.
func (s *Service) Upsert(ctx context.Context, actor model.Actor, c model.Catalog, entry *model.CatalogEntry) error {
	if !actor.Can(model.PermCatalogManage) {
		return apperrors.Forbidden("")
	}
	if !c.Valid() {
		return apperrors.NotFound("catalog", nil)
	}
	entry.Code = strings.ToLower(strings.TrimSpace(entry.Code))
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Code == "" || entry.Name == "" {
		return apperrors.Validation("code and name are required")
	}
	if err := s.repo.Upsert(ctx, c, entry); err != nil {
		return fmt.Errorf("failed to upsert %s entry: %w", c, err)
	}
	return nil
}
