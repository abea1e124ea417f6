// internal/config/config_test.go

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.InDelta(t, 0.85, cfg.Analysis.DuplicateThreshold, 1e-9)
		assert.Equal(t, 4, cfg.Analysis.PoolSize)
		assert.Equal(t, "chanscope", cfg.Database.Database)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("ANALYSIS_DUPLICATE_THRESHOLD", "0.9")
		t.Setenv("ANALYSIS_POSTS_WINDOW", "48h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.InDelta(t, 0.9, cfg.Analysis.DuplicateThreshold, 1e-9)
		assert.Equal(t, 48*time.Hour, cfg.Analysis.PostsWindow)
	})

	t.Run("rejects an invalid duplicate threshold", func(t *testing.T) {
		t.Setenv("ANALYSIS_DUPLICATE_THRESHOLD", "1.5")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects a zero pool size", func(t *testing.T) {
		t.Setenv("ANALYSIS_POOL_SIZE", "-1")
		_, err := Load()
		assert.Error(t, err)
	})
}
