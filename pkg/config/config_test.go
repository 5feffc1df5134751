package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("ADMIN_EMAILS", " Root@Example.com ,ops@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "./uploads", cfg.UploadDir)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, insecureDevSecret, cfg.JWTSecret)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow())
	assert.True(t, cfg.LLMEnabled)
	assert.True(t, cfg.IsAdminEmail("root@example.com"))
	assert.True(t, cfg.IsAdminEmail("OPS@example.com "))
	assert.False(t, cfg.IsAdminEmail("guest@example.com"))
}

func TestValidate(t *testing.T) {
	t.Run("rejects unknown env", func(t *testing.T) {
		cfg := Config{AppEnv: "dev", DBDriver: "sqlite", TokenTTL: time.Hour}
		assert.Error(t, cfg.Validate())
	})

	t.Run("production requires secret", func(t *testing.T) {
		cfg := Config{AppEnv: EnvProduction, DBDriver: "sqlite", TokenTTL: time.Hour}
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		cfg := Config{AppEnv: EnvStaging, DBDriver: "oracle", TokenTTL: time.Hour, JWTSecret: "x"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("production with secret", func(t *testing.T) {
		cfg := Config{
			AppEnv: EnvProduction, DBDriver: "postgres", TokenTTL: time.Hour, JWTSecret: "s3cret",
			RateLimitWindowSeconds: 10, RateLimitCapacity: 5, UserConcurrencyLimit: 2,
		}
		require.NoError(t, cfg.Validate())
		assert.True(t, cfg.IsProduction())
	})

	t.Run("rejects zero limits", func(t *testing.T) {
		valid := func() Config {
			return Config{
				AppEnv: EnvStaging, DBDriver: "sqlite", TokenTTL: time.Hour, JWTSecret: "x",
				RateLimitWindowSeconds: 10, RateLimitCapacity: 5, UserConcurrencyLimit: 2,
			}
		}
		cfg := valid()
		require.NoError(t, cfg.Validate())

		cfg = valid()
		cfg.RateLimitCapacity = 0
		assert.ErrorContains(t, cfg.Validate(), "RATE_LIMIT_CAPACITY")

		cfg = valid()
		cfg.UserConcurrencyLimit = 0
		assert.ErrorContains(t, cfg.Validate(), "USER_CONCURRENCY_LIMIT")

		cfg = valid()
		cfg.RateLimitWindowSeconds = -1
		assert.ErrorContains(t, cfg.Validate(), "RATE_LIMIT_WINDOW_SECONDS")
	})
}
