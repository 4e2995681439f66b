package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jonwraymond/liststore/observe"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LISTSTORE_"

// Config is the full liststore configuration.
type Config struct {
	API     APIConfig      `koanf:"api"`
	Tags    TagsConfig     `koanf:"tags"`
	Retry   RetryConfig    `koanf:"retry"`
	Breaker BreakerConfig  `koanf:"breaker"`
	Observe observe.Config `koanf:"observe"`
}

// APIConfig configures the REST client.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Org       string        `koanf:"org"`
	Token     string        `koanf:"token"` // static token, wins over jwt
	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"user_agent"`
	JWT       JWTConfig     `koanf:"jwt"`
}

// JWTConfig configures minted service tokens.
type JWTConfig struct {
	Secret   string        `koanf:"secret"`
	Issuer   string        `koanf:"issuer"`
	Subject  string        `koanf:"subject"`
	Audience string        `koanf:"audience"`
	TTL      time.Duration `koanf:"ttl"`
}

// TagsConfig configures the tag store.
type TagsConfig struct {
	Max int `koanf:"max"`
}

// RetryConfig configures fetch retries.
type RetryConfig struct {
	MaxAttempts    int           `koanf:"max_attempts"`
	InitialDelay   time.Duration `koanf:"initial_delay"`
	MaxDelay       time.Duration `koanf:"max_delay"`
	Jitter         bool          `koanf:"jitter"`
	AttemptTimeout time.Duration `koanf:"attempt_timeout"`
}

// BreakerConfig configures the fetch circuit breaker.
type BreakerConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxFailures int           `koanf:"max_failures"`
	CoolDown    time.Duration `koanf:"cool_down"`
}

var defaults = map[string]any{
	"api.timeout":    30 * time.Second,
	"api.user_agent": "liststore",
	"api.jwt.issuer": "liststore",
	"api.jwt.ttl":    5 * time.Minute,

	"tags.max": 1000,

	"retry.max_attempts":    3,
	"retry.initial_delay":   200 * time.Millisecond,
	"retry.max_delay":       5 * time.Second,
	"retry.jitter":          true,
	"retry.attempt_timeout": 10 * time.Second,

	"breaker.enabled":      true,
	"breaker.max_failures": 5,
	"breaker.cool_down":    30 * time.Second,

	"observe.service_name":       "liststore",
	"observe.tracing.exporter":   "none",
	"observe.tracing.sample_pct": 1.0,
	"observe.metrics.exporter":   "none",
	"observe.logging.enabled":    true,
	"observe.logging.level":      "info",
}

// Load reads defaults, then the YAML file at path (skipped when empty),
// then LISTSTORE_ environment variables. Secret fields are expanded with
// ExpandEnvStrict. The result is not validated.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("%w: default %s: %v", ErrLoad, key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
		}
	}

	// LISTSTORE_API__BASE_URL -> api.base_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %v", ErrLoad, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	var err error
	if cfg.API.Token, err = ExpandEnvStrict(cfg.API.Token); err != nil {
		return nil, fmt.Errorf("api.token: %w", err)
	}
	if cfg.API.JWT.Secret, err = ExpandEnvStrict(cfg.API.JWT.Secret); err != nil {
		return nil, fmt.Errorf("api.jwt.secret: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings needed to talk to the API.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.API.Org == "" {
		return ErrMissingOrg
	}
	if c.Tags.Max <= 0 {
		return ErrInvalidTagLimit
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidRetry)
	}
	if c.Retry.MaxDelay > 0 && c.Retry.InitialDelay > c.Retry.MaxDelay {
		return fmt.Errorf("%w: initial_delay exceeds max_delay", ErrInvalidRetry)
	}
	if c.Breaker.Enabled && c.Breaker.MaxFailures < 1 {
		return fmt.Errorf("%w: max_failures must be at least 1", ErrInvalidBreaker)
	}
	return c.Observe.Validate()
}
