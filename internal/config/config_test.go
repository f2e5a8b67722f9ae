package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/linemk/order-manager/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config_test_*.yaml")
	require.NoError(t, err)

	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

func TestMustLoadByPath_Success(t *testing.T) {
	// Обязательный пароль БД приходит только из окружения
	t.Setenv("DB_PASSWORD", "mypassword")

	path := writeConfig(t, `
env: "local"
http_server:
  address: "localhost:8000"
  timeout: "4s"
  idle_timeout: "60s"
  shutdown_timeout: "10s"
database:
  host: "localhost"
  port: 5432
  user: "postgres"
  name: "orders"
  max_open_conns: 10
migrations:
  path: "./migrations"
cors:
  allowed_origins:
    - "http://localhost:4200"
    - "http://example.com"
`)

	cfg := config.MustLoadByPath(path)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "localhost:8000", cfg.HTTPServer.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 60*time.Second, cfg.HTTPServer.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTPServer.ShutdownTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "mypassword", cfg.Database.Password)
	assert.Equal(t, "orders", cfg.Database.Name)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "./migrations", cfg.Migrations.Path)
	assert.Equal(t, []string{"http://localhost:4200", "http://example.com"}, cfg.CORS.AllowedOrigins)
}

func TestMustLoadByPath_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "mypassword")

	path := writeConfig(t, `
database:
  user: "postgres"
  name: "orders"
`)

	cfg := config.MustLoadByPath(path)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "localhost:8000", cfg.HTTPServer.Address)
	assert.Equal(t, 5*time.Second, cfg.HTTPServer.ShutdownTimeout)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.CORS.AllowedOrigins)
}

func TestMustLoadByPath_FileNotFound(t *testing.T) {
	// Ожидаем панику, если файла не существует
	assert.Panics(t, func() {
		config.MustLoadByPath("non_existent_config.yaml")
	})
}
