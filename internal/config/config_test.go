package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	os.Setenv("EXPORT_DEFAULT_ROWS", "500")
	defer os.Unsetenv("EXPORT_DEFAULT_ROWS")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, int64(500), cfg.Export.DefaultRows)
	assert.Equal(t, 32*1024, cfg.Export.ReadChunkBytes)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "42")
	assert.Equal(t, 42, getEnvInt(key, 0))

	os.Setenv(key, "not-a-number")
	assert.Equal(t, 7, getEnvInt(key, 7))

	os.Unsetenv(key)
	assert.Equal(t, 7, getEnvInt(key, 7))
}

func TestGetEnvInt64(t *testing.T) {
	key := "TEST_INT64_VAR"

	os.Setenv(key, "9000000000")
	assert.Equal(t, int64(9000000000), getEnvInt64(key, 0))

	os.Setenv(key, "bad")
	assert.Equal(t, int64(3), getEnvInt64(key, 3))

	os.Unsetenv(key)
	assert.Equal(t, int64(3), getEnvInt64(key, 3))
}
