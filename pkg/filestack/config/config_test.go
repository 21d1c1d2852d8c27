package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/filestack-go/pkg/filestack"
	"github.com/tendant/filestack-go/pkg/filestack/security"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithAPIKey("KEY"))
	require.NoError(t, err)

	assert.Equal(t, filestack.APIURL, cfg.APIBaseURL)
	assert.Equal(t, filestack.ProcessingURL, cfg.ProcessingBaseURL)
	assert.Equal(t, time.Hour, cfg.PolicyExpiry)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.False(t, cfg.SigningEnabled())
}

func TestLoadRequiresAPIKey(t *testing.T) {
	_, err := Load()
	assert.EqualError(t, err, "api key is required")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"relative api url", func(c *Config) { c.APIBaseURL = "/api" }, true},
		{"ftp processing url", func(c *Config) { c.ProcessingBaseURL = "ftp://cdn.example.com" }, true},
		{"zero expiry", func(c *Config) { c.PolicyExpiry = 0 }, true},
		{"zero attempts", func(c *Config) { c.RetryAttempts = 0 }, true},
		{"single attempt", func(c *Config) { c.RetryAttempts = 1 }, false},
		{"zero delay", func(c *Config) { c.RetryDelay = 0 }, false},
		{"negative attempts", func(c *Config) { c.RetryAttempts = -1 }, true},
		{"negative delay", func(c *Config) { c.RetryDelay = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.APIKey = "KEY"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithEnv(t *testing.T) {
	t.Setenv("FILESTACK_API_KEY", "ENVKEY")
	t.Setenv("FILESTACK_SECRET", "s3cr3t")
	t.Setenv("FILESTACK_API_URL", "http://localhost:9000/api")
	t.Setenv("FILESTACK_POLICY_EXPIRY", "15m")
	t.Setenv("FILESTACK_RETRY_ATTEMPTS", "5")

	cfg, err := Load(WithEnv())
	require.NoError(t, err)

	assert.Equal(t, "ENVKEY", cfg.APIKey)
	assert.Equal(t, "s3cr3t", cfg.Secret)
	assert.Equal(t, "http://localhost:9000/api", cfg.APIBaseURL)
	assert.Equal(t, filestack.ProcessingURL, cfg.ProcessingBaseURL)
	assert.Equal(t, 15*time.Minute, cfg.PolicyExpiry)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.True(t, cfg.SigningEnabled())
}

func TestWithEnvOverridesProgrammatic(t *testing.T) {
	t.Setenv("FILESTACK_API_KEY", "ENVKEY")

	cfg, err := Load(WithAPIKey("CODEKEY"), WithEnv())
	require.NoError(t, err)
	assert.Equal(t, "ENVKEY", cfg.APIKey)

	cfg, err = Load(WithEnv(), WithAPIKey("CODEKEY"))
	require.NoError(t, err)
	assert.Equal(t, "CODEKEY", cfg.APIKey)
}

func TestWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filestack.yaml")
	content := "api_key: FILEKEY\nsecret: filesecret\nprocessing_url: http://localhost:9001\nretry_attempts: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(WithFile(path))
	require.NoError(t, err)

	assert.Equal(t, "FILEKEY", cfg.APIKey)
	assert.Equal(t, "filesecret", cfg.Secret)
	assert.Equal(t, "http://localhost:9001", cfg.ProcessingBaseURL)
	assert.Equal(t, 2, cfg.RetryAttempts)
}

func TestWithFileMissing(t *testing.T) {
	_, err := Load(WithAPIKey("KEY"), WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestSecurity(t *testing.T) {
	cfg, err := Load(WithAPIKey("KEY"))
	require.NoError(t, err)

	sec, err := cfg.Security([]string{security.CallRead}, "h1")
	require.NoError(t, err)
	assert.Nil(t, sec)

	cfg.Secret = "secret"
	sec, err = cfg.Security([]string{security.CallRead}, "h1")
	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, []string{security.CallRead}, sec.Decoded().Call)
	assert.Equal(t, "h1", sec.Decoded().Handle)

	_, err = security.Verify("secret", sec.Policy(), sec.Signature(), time.Now())
	assert.NoError(t, err)
}

func TestURLBuilder(t *testing.T) {
	cfg, err := Load(WithAPIKey("KEY"), func(c *Config) error {
		c.APIBaseURL = "http://localhost:9000/api/"
		return nil
	})
	require.NoError(t, err)

	url, err := cfg.URLBuilder().CreateURL(filestack.ActionDelete, cfg.APIKey,
		filestack.Options{}.With("handle", "h1"), nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/api/file/h1?key=KEY", url)
}

func TestBuildClient(t *testing.T) {
	cfg, err := Load(WithAPIKey("KEY"), WithSecret("secret"))
	require.NoError(t, err)

	c, err := cfg.BuildClient(nil, security.CallStore)
	require.NoError(t, err)
	assert.NotNil(t, c)
}
