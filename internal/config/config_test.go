package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: s3cret
scheduling:
  timezone: Europe/Madrid
  default_slot_minutes: 20
server:
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Scheduling.DefaultSlotMinutes)
	assert.Equal(t, "/media/attachments", cfg.Storage.PublicPrefix)

	loc, err := cfg.Scheduling.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", loc.String())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: from-file\n")
	t.Setenv("CARE_JWT_SECRET", "from-env")
	t.Setenv("CARE_DATABASE_PORT", "6543")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 6543, cfg.Database.Port)
}

func TestValidate(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
	assert.ErrorContains(t, err, "jwt.secret")

	_, err = Load(writeConfig(t, "jwt:\n  secret: x\nscheduling:\n  timezone: Mars/Olympus\n"))
	assert.ErrorContains(t, err, "timezone")

	_, err = Load(writeConfig(t, "jwt:\n  secret: x\nscheduling:\n  default_slot_minutes: 500\n"))
	assert.ErrorContains(t, err, "default_slot_minutes")

	_, err = Load(writeConfig(t, "jwt:\n  secret: x\nsecurity:\n  bcrypt_cost: 40\n"))
	assert.ErrorContains(t, err, "bcrypt_cost")
}

func TestReadSkipsValidation(t *testing.T) {
	cfg, err := Read(writeConfig(t, "database:\n  name: care_admin\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.JWT.Secret)
	assert.Equal(t, "care_admin", cfg.Database.Name)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "care", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=care sslmode=disable", d.DSN())
}
