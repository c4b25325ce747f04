package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VITE_GEMINI_API_KEY", "")
	t.Setenv("SESSION_TTL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Len(t, cfg.JWTSecret, 64, "an ephemeral secret is generated when none is configured")
	assert.False(t, cfg.HasGemini())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("SESSION_TTL", "90")
	t.Setenv("GEMINI_TIMEOUT", "3s")
	t.Setenv("FRONTEND_URL", "https://cirqle.app/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.True(t, cfg.HasGemini())
	assert.Equal(t, 90*time.Second, cfg.SessionTTL)
	assert.Equal(t, 3*time.Second, cfg.GeminiTimeout)
	assert.Equal(t, "https://cirqle.app", cfg.FrontendURL)
}
