package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppConfigDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "STORAGE", "AI_CACHE_TTL", "AI_CACHE_SIZE", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := appConfigFromEnv()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.Storage)
	assert.Equal(t, 10*time.Minute, cfg.AICacheTTL)
	assert.Equal(t, 256, cfg.AICacheSize)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestAppConfigOverrides(t *testing.T) {
	t.Setenv("STORAGE", "Memory")
	t.Setenv("AI_CACHE_TTL", "90")
	t.Setenv("AI_PERSIST_TTL", "48h")
	t.Setenv("AI_CACHE_SIZE", "-4")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg := appConfigFromEnv()
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, 90*time.Second, cfg.AICacheTTL)
	assert.Equal(t, 48*time.Hour, cfg.AIPersistTTL)
	assert.Equal(t, 256, cfg.AICacheSize)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}
