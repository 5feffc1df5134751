package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvStaging    = "staging"
	EnvProduction = "production"

	// insecureDevSecret is only accepted outside production.
	insecureDevSecret = "insecure-dev-secret"
)

// Config holds every runtime setting. Values come from the process
// environment, optionally seeded from a .env file outside production.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"staging"`
	Port     string `env:"PORT" envDefault:"5000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"app.db"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	UploadDir   string   `env:"UPLOAD_DIR" envDefault:"./uploads"`

	JWTSecret   string        `env:"JWT_SECRET_KEY"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	AdminEmails []string      `env:"ADMIN_EMAILS" envSeparator:","`

	// LLMEnabled switches between the real gateway providers and the local
	// canned-reply provider.
	LLMEnabled     bool          `env:"LLM_ENABLED" envDefault:"true"`
	GatewayBaseURL string        `env:"AI_GATEWAY_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	GatewayAPIKey  string        `env:"AI_GATEWAY_API_KEY"`
	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	GeminiModel    string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	DefaultModelID string        `env:"DEFAULT_MODEL_ID" envDefault:"ep-20251203173341-sztlm"`
	TitleModelName string        `env:"TITLE_MODEL_NAME" envDefault:"Doubao-lite-32k"`
	StreamTimeout  time.Duration `env:"STREAM_TIMEOUT" envDefault:"75s"`

	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"10"`
	RateLimitCapacity      int `env:"RATE_LIMIT_CAPACITY" envDefault:"5"`
	UserConcurrencyLimit   int `env:"USER_CONCURRENCY_LIMIT" envDefault:"2"`
	DuplicateWindowSeconds int `env:"DUPLICATE_WINDOW_SECONDS" envDefault:"45"`
	CacheTTLSeconds        int `env:"CACHE_TTL_SECONDS" envDefault:"600"`
	CacheMaxItems          int `env:"CACHE_MAX_ITEMS" envDefault:"500"`
}

// Load reads .env (skipped in production) and parses the environment.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != EnvProduction {
		// a missing .env is fine, the host environment may carry everything
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field rules and fills staging-only fallbacks.
func (c *Config) Validate() error {
	if !slices.Contains([]string{EnvStaging, EnvProduction}, c.AppEnv) {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvStaging, EnvProduction, c.AppEnv)
	}
	if !slices.Contains([]string{"sqlite", "mysql", "postgres"}, c.DBDriver) {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET_KEY must be set in production")
		}
		c.JWTSecret = insecureDevSecret
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	for _, l := range []struct {
		name string
		v    int
	}{
		{"RATE_LIMIT_WINDOW_SECONDS", c.RateLimitWindowSeconds},
		{"RATE_LIMIT_CAPACITY", c.RateLimitCapacity},
		{"USER_CONCURRENCY_LIMIT", c.UserConcurrencyLimit},
	} {
		if l.v < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", l.name, l.v)
		}
	}
	for i, e := range c.AdminEmails {
		c.AdminEmails[i] = strings.ToLower(strings.TrimSpace(e))
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == EnvProduction }

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateWindowSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	return slices.Contains(c.AdminEmails, strings.ToLower(strings.TrimSpace(email)))
}
