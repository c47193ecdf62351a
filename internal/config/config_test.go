package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ListenAddr:         "127.0.0.1:8080",
		HMACSecret:         strings.Repeat("s", 32),
		PostgresHost:       "localhost",
		PostgresPort:       5432,
		PostgresUser:       "aiva",
		PostgresPassword:   "secret",
		PostgresDBName:     "aiva",
		PostgresSSLMode:    "disable",
		PromptVariant:      VariantAivaClaims,
		ScriptRunURL:       "https://example.com/api/run/",
		RawQueryURL:        "https://example.com/api/raw-query/",
		WeatherBaseURL:     "https://api.open-meteo.com/v1/forecast",
		ToolTimeoutSeconds: 60,
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_Nil(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrConfigNil)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"missing hmac secret", func(c *Config) { c.HMACSecret = "" }, ErrMissingHMACSecret},
		{"short hmac secret", func(c *Config) { c.HMACSecret = "short" }, ErrInvalidHMACSecret},
		{"empty host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"port too low", func(c *Config) { c.PostgresPort = 0 }, ErrInvalidPostgresPort},
		{"port too high", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"empty db name", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
		{"bad ssl mode", func(c *Config) { c.PostgresSSLMode = "maybe" }, ErrInvalidPostgresSSLMode},
		{"bad variant", func(c *Config) { c.PromptVariant = "aiva-unknown" }, ErrInvalidPromptVariant},
		{"bad script url", func(c *Config) { c.ScriptRunURL = "not a url" }, ErrInvalidToolEndpoint},
		{"relative weather url", func(c *Config) { c.WeatherBaseURL = "/v1/forecast" }, ErrInvalidToolEndpoint},
		{"zero timeout", func(c *Config) { c.ToolTimeoutSeconds = 0 }, ErrInvalidToolTimeout},
		{"huge timeout", func(c *Config) { c.ToolTimeoutSeconds = 9000 }, ErrInvalidToolTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "p@ss word"

	dsn := cfg.PostgresConnectionString()

	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "password='p@ss word'")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestPostgresURL(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "p@ss/word"

	u := cfg.PostgresURL()

	assert.True(t, strings.HasPrefix(u, "postgres://"), "url = %q", u)
	assert.Contains(t, u, "localhost:5432")
	assert.Contains(t, u, "sslmode=disable")
	// Password special characters must be percent-encoded.
	assert.NotContains(t, u, "p@ss/word")
}

func TestQuoteDSNValue_Escapes(t *testing.T) {
	assert.Equal(t, `'it\'s a \\ test'`, quoteDSNValue(`it's a \ test`))
}

func TestMarshalJSON_MasksSecrets(t *testing.T) {
	cfg := validConfig()

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	out := string(data)
	assert.NotContains(t, out, strings.Repeat("s", 32), "HMAC secret leaked")
	assert.Contains(t, out, `"postgres_password":"***"`)
	assert.Contains(t, out, `"hmac_secret":"***"`)
}
