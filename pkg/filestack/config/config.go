package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tendant/filestack-go/pkg/filestack"
	"github.com/tendant/filestack-go/pkg/filestack/client"
	"github.com/tendant/filestack-go/pkg/filestack/security"
)

// Option applies configuration to a Config instance.
type Option func(*Config) error

// Load constructs a Config by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*Config, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		APIBaseURL:        filestack.APIURL,
		ProcessingBaseURL: filestack.ProcessingURL,
		PolicyExpiry:      security.DefaultExpiresIn,
		HTTPTimeout:       5 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Second,
		Port:              "8080",
		Environment:       "development",
	}
}

// Config holds Filestack credentials and client settings
type Config struct {
	APIKey string
	Secret string // application secret; empty disables signing

	APIBaseURL        string
	ProcessingBaseURL string

	PolicyExpiry  time.Duration
	HTTPTimeout   time.Duration
	RetryAttempts int
	RetryDelay    time.Duration

	// Server options (cmd/server only)
	Port        string
	Environment string // development, production, testing
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) error {
		c.APIKey = key
		return nil
	}
}

// WithSecret sets the application secret used to sign policies.
func WithSecret(secret string) Option {
	return func(c *Config) error {
		c.Secret = secret
		return nil
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key is required")
	}
	if err := validateBaseURL("api base url", c.APIBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("processing base url", c.ProcessingBaseURL); err != nil {
		return err
	}
	if c.PolicyExpiry <= 0 {
		return errors.New("policy expiry must be positive")
	}
	if c.RetryAttempts < 1 {
		return errors.New("retry attempts must be at least 1")
	}
	if c.RetryDelay < 0 {
		return errors.New("retry delay must not be negative")
	}
	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) url: %q", name, raw)
	}
	return nil
}

// SigningEnabled reports whether a secret is configured.
func (c *Config) SigningEnabled() bool {
	return c.Secret != ""
}

// URLBuilder returns a builder for the configured endpoints.
func (c *Config) URLBuilder() *filestack.URLBuilder {
	return filestack.NewURLBuilderWithBase(c.APIBaseURL, c.ProcessingBaseURL)
}

// Security creates a policy limited to calls (and handle, when not empty) that
// expires after PolicyExpiry. It returns nil, nil when no secret is configured.
func (c *Config) Security(calls []string, handle string) (*security.Security, error) {
	if !c.SigningEnabled() {
		return nil, nil
	}

	opts := []security.Option{security.WithExpiresIn(c.PolicyExpiry)}
	if len(calls) > 0 {
		opts = append(opts, security.WithCalls(calls...))
	}
	if handle != "" {
		opts = append(opts, security.WithHandle(handle))
	}
	return security.New(c.Secret, opts...)
}

// BuildClient creates a client for the configured endpoints. When a secret is
// configured, requests are signed with a policy scoped to calls.
func (c *Config) BuildClient(logger *slog.Logger, calls ...string) (*client.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []client.Option{
		client.WithURLBuilder(c.URLBuilder()),
		client.WithHTTPClient(&http.Client{Timeout: c.HTTPTimeout}),
		client.WithRetry(c.RetryAttempts, c.RetryDelay),
		client.WithLogger(logger),
	}

	sec, err := c.Security(calls, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create security policy: %w", err)
	}
	if sec != nil {
		opts = append(opts, client.WithSecurity(sec))
	}

	return client.New(c.APIKey, opts...), nil
}
