package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "foodgram", cfg.Auth.JWTIssuer)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTDuration())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "server:\n  http_addr: \":9000\"\n  base_url: \"https://food.example\"\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("FOODGRAM_LOG_LEVEL", "warn")
	t.Setenv("FOODGRAM_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FOODGRAM_AUTH_JWT_TTL_HOURS", "2")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.HTTPAddr)
	assert.Equal(t, "https://food.example", cfg.Server.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWTDuration())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("FOODGRAM_LOG_FORMAT", "xml")
	_, err := LoadFrom("")
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "auth.jwt_secret", envKey("FOODGRAM_AUTH_JWT_SECRET"))
	assert.Equal(t, "database.path", envKey("FOODGRAM_DATABASE_PATH"))
	assert.Equal(t, "", envKey("FOODGRAM_CONFIG"))
}
