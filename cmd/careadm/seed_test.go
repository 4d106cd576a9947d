package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository/memory"
	"github.com/unihealth/care-api/internal/repository/postgres"
	"github.com/unihealth/care-api/pkg/security"
)

func memoryRepositories() *postgres.Repositories {
	store := memory.NewStore()
	return &postgres.Repositories{
		Users:        store.Users(),
		Patients:     store.Patients(),
		Catalogs:     store.Catalogs(),
		Appointments: store.Appointments(),
		Availability: store.Availability(),
		Alerts:       store.Alerts(),
		Medical:      store.Medical(),
		Audit:        store.Audit(),
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	repos := memoryRepositories()
	hasher := security.NewBcryptHasher(4)

	summary, err := seed(ctx, repos, hasher, seedOptions{Nurses: 2, Patients: 3, Password: "changeme123", Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, 8, summary.Catalogs)
	assert.Equal(t, 6, summary.Users)
	assert.Equal(t, 20, summary.Blocks)

	nurses, err := repos.Users.List(ctx, &model.UserFilter{Role: model.RoleNurse})
	require.NoError(t, err)
	require.Len(t, nurses, 2)
	blocks, err := repos.Availability.ListForWeekday(ctx, nurses[0].ID, 0)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)

	entry, err := repos.Catalogs.Lookup(ctx, model.CatalogServiceTypes, "CHECKUP")
	require.NoError(t, err)
	assert.Equal(t, "checkup", entry.Code)

	again, err := seed(ctx, repos, hasher, seedOptions{Password: "changeme123", Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Users)
	assert.Equal(t, 1, again.Skipped)
}

func TestCreateUserHashesPassword(t *testing.T) {
	ctx := context.Background()
	repos := memoryRepositories()
	hasher := security.NewBcryptHasher(4)

	user, err := createUser(ctx, repos, hasher, " Root@Care.Local ", "s3cretpass", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "root@care.local", user.Email)
	assert.NoError(t, hasher.Compare(user.PasswordHash, "s3cretpass"))

	_, err = createUser(ctx, repos, hasher, "root@care.local", "s3cretpass", model.RoleAdmin)
	assert.Error(t, err)
}
