package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// fileConfig is the on-disk and environment representation of Config.
// Zero values mean "not set" and leave the current value untouched.
type fileConfig struct {
	APIKey            string        `yaml:"api_key" json:"api_key" toml:"api_key" env:"FILESTACK_API_KEY"`
	Secret            string        `yaml:"secret" json:"secret" toml:"secret" env:"FILESTACK_SECRET"`
	APIBaseURL        string        `yaml:"api_url" json:"api_url" toml:"api_url" env:"FILESTACK_API_URL"`
	ProcessingBaseURL string        `yaml:"processing_url" json:"processing_url" toml:"processing_url" env:"FILESTACK_PROCESSING_URL"`
	PolicyExpiry      time.Duration `yaml:"policy_expiry" json:"policy_expiry" toml:"policy_expiry" env:"FILESTACK_POLICY_EXPIRY"`
	HTTPTimeout       time.Duration `yaml:"http_timeout" json:"http_timeout" toml:"http_timeout" env:"FILESTACK_HTTP_TIMEOUT"`
	RetryAttempts     int           `yaml:"retry_attempts" json:"retry_attempts" toml:"retry_attempts" env:"FILESTACK_RETRY_ATTEMPTS"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay" toml:"retry_delay" env:"FILESTACK_RETRY_DELAY"`
	Port              string        `yaml:"port" json:"port" toml:"port" env:"PORT"`
	Environment       string        `yaml:"environment" json:"environment" toml:"environment" env:"ENVIRONMENT"`
}

// WithEnv applies environment variable overrides.
//
//	FILESTACK_API_KEY         - API key (required)
//	FILESTACK_SECRET          - application secret, enables signing
//	FILESTACK_API_URL         - REST API base (default: https://www.filestackapi.com/api)
//	FILESTACK_PROCESSING_URL  - processing base (default: https://cdn.filestackcontent.com)
//	FILESTACK_POLICY_EXPIRY   - policy lifetime, e.g. "15m" (default: 1h)
//	FILESTACK_HTTP_TIMEOUT    - per-request timeout (default: 5m)
//	FILESTACK_RETRY_ATTEMPTS  - attempts per request (default: 3)
//	FILESTACK_RETRY_DELAY     - base delay between attempts (default: 1s)
//	PORT, ENVIRONMENT         - cmd/server only
func WithEnv() Option {
	return func(c *Config) error {
		var fc fileConfig
		if err := cleanenv.ReadEnv(&fc); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		fc.apply(c)
		return nil
	}
}

// WithFile reads a YAML, JSON, TOML or .env file. Environment variables override
// values from the file.
func WithFile(path string) Option {
	return func(c *Config) error {
		var fc fileConfig
		if err := cleanenv.ReadConfig(path, &fc); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		fc.apply(c)
		return nil
	}
}

func (fc fileConfig) apply(c *Config) {
	setString(&c.APIKey, fc.APIKey)
	setString(&c.Secret, fc.Secret)
	setString(&c.APIBaseURL, fc.APIBaseURL)
	setString(&c.ProcessingBaseURL, fc.ProcessingBaseURL)
	setString(&c.Port, fc.Port)
	setString(&c.Environment, fc.Environment)

	if fc.PolicyExpiry != 0 {
		c.PolicyExpiry = fc.PolicyExpiry
	}
	if fc.HTTPTimeout != 0 {
		c.HTTPTimeout = fc.HTTPTimeout
	}
	if fc.RetryAttempts != 0 {
		c.RetryAttempts = fc.RetryAttempts
	}
	if fc.RetryDelay != 0 {
		c.RetryDelay = fc.RetryDelay
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
