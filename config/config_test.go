package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("JWT_SECRET", "")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	want := AuthConfig{SecretKey: "", TokenTTL: 30 * time.Minute, BcryptCost: 10}
	if diff := cmp.Diff(want, cfg.Auth); diff != "" {
		t.Fatalf("auth config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "", cfg.Cache.Addr)
	assert.Equal(t, "", cfg.Storage.Backend)
	assert.Equal(t, "notes-events", cfg.MQ.EventsChannel)
	assert.Equal(t, "notes-import", cfg.MQ.ImportChannel)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingSecretKey)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("JWT_SECRET", " fallback ")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("DB_AUTO_MIGRATE", "yes")
	t.Setenv("CACHE_ADDR", "redis:6379")
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("MQ_BACKEND", "SQS")
	t.Setenv("SQS_QUEUE_URL_PREFIX", "https://sqs.local/000/")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "fallback", cfg.Auth.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)

	wantDB := DatabaseConfig{
		Driver:      "pgx",
		Host:        "db",
		Port:        6543,
		User:        "jotnotes",
		Password:    "password",
		DBName:      "jotnotes_db",
		UseSSL:      true,
		AutoMigrate: true,
	}
	if diff := cmp.Diff(wantDB, cfg.Database); diff != "" {
		t.Fatalf("database config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "redis:6379", cfg.Cache.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Cache.InvalidateDelay)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "sqs", cfg.MQ.Backend)
	assert.Equal(t, "https://sqs.local/000/", cfg.MQ.SQS.QueueURLPrefix)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{
		Database: DatabaseConfig{Driver: "postgres"},
		Auth:     AuthConfig{SecretKey: "s", TokenTTL: time.Minute},
	}
	assert.NoError(t, base.Validate())

	noTTL := base
	noTTL.Auth.TokenTTL = 0
	assert.Error(t, noTTL.Validate())

	badDriver := base
	badDriver.Database.Driver = "mysql"
	assert.Error(t, badDriver.Validate())
}
