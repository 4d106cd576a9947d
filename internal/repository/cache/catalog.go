package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
)

// Config controls how long catalog entries stay cached.
type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		TTL:             5 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

// catalogRepository caches the read path of a CatalogRepository. Catalogs
// change rarely and are read on every booking, alert and record write.
type catalogRepository struct {
	next  repository.CatalogRepository
	cache *gocache.Cache
}

func NewCatalogRepository(next repository.CatalogRepository, cfg Config) repository.CatalogRepository {
	return &catalogRepository{
		next:  next,
		cache: gocache.New(cfg.TTL, cfg.CleanupInterval),
	}
}

func lookupKey(c model.Catalog, code string) string {
	return "lookup:" + string(c) + ":" + strings.ToLower(code)
}

func listKey(c model.Catalog) string {
	return "list:" + string(c)
}

func (r *catalogRepository) Lookup(ctx context.Context, c model.Catalog, code string) (*model.CatalogEntry, error) {
	key := lookupKey(c, code)
	if v, ok := r.cache.Get(key); ok {
		return v.(*model.CatalogEntry), nil
	}
	entry, err := r.next.Lookup(ctx, c, code)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, entry)
	return entry, nil
}

func (r *catalogRepository) ListActive(ctx context.Context, c model.Catalog) ([]*model.CatalogEntry, error) {
	key := listKey(c)
	if v, ok := r.cache.Get(key); ok {
		return v.([]*model.CatalogEntry), nil
	}
	entries, err := r.next.ListActive(ctx, c)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, entries)
	return entries, nil
}

// Upsert writes through and drops the affected keys.
func (r *catalogRepository) Upsert(ctx context.Context, c model.Catalog, e *model.CatalogEntry) error {
	if err := r.next.Upsert(ctx, c, e); err != nil {
		return err
	}
	r.cache.Delete(listKey(c))
	r.cache.Delete(lookupKey(c, e.Code))
	return nil
}
