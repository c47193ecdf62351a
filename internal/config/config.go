// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (AIVA_* prefix, runtime override)
//  2. Config file (~/.aiva/config.yaml or ./config.yaml)
//  3. Default values
//
// Categories:
//   - Server: listen address, CORS origins, rate limiting, proxy trust
//   - Storage: PostgreSQL connection for chat transcripts
//   - Prompt: deployment variant and persona name
//   - Tools: remote script/query execution endpoints and their transport
//
// Security: passwords and secrets are masked in MarshalJSON and never
// logged. Validation is fail-fast with sentinel errors checkable via
// errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingHMACSecret indicates the session-cookie HMAC secret is not set.
	ErrMissingHMACSecret = errors.New("missing HMAC secret")

	// ErrInvalidHMACSecret indicates the HMAC secret is shorter than 32 bytes.
	ErrInvalidHMACSecret = errors.New("invalid HMAC secret")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates an unrecognized sslmode value.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidPromptVariant indicates the prompt variant is not one of the
	// known deployment variants.
	ErrInvalidPromptVariant = errors.New("invalid prompt variant")

	// ErrInvalidToolEndpoint indicates a remote tool endpoint URL is malformed.
	ErrInvalidToolEndpoint = errors.New("invalid tool endpoint")

	// ErrInvalidToolTimeout indicates the tool timeout is out of range.
	ErrInvalidToolTimeout = errors.New("invalid tool timeout")
)

// Valid sslmode values accepted by pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Known prompt deployment variants. The variant decides persona, domain
// framing, and which reference data is embedded in the system instruction.
const (
	VariantAivaClaims   = "aiva-claims"
	VariantAivaData     = "aiva-data"
	VariantTitikRecords = "titik-records"
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON. When adding new
// secrets, update MarshalJSON.
type Config struct {
	// Server
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For behind a reverse proxy
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`   // Per-IP token bucket burst (0 = default)

	// Session guard
	HMACSecret string `mapstructure:"hmac_secret" json:"hmac_secret"`

	// PostgreSQL (chat transcripts)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Prompt assembly
	PromptVariant string `mapstructure:"prompt_variant" json:"prompt_variant"`
	PersonaName   string `mapstructure:"persona_name" json:"persona_name"` // Empty = variant default

	// Remote tool endpoints
	ScriptRunURL   string `mapstructure:"script_run_url" json:"script_run_url"`
	RawQueryURL    string `mapstructure:"raw_query_url" json:"raw_query_url"`
	WeatherBaseURL string `mapstructure:"weather_base_url" json:"weather_base_url"`

	// Remote tool transport. The original deployment disabled TLS
	// verification process-wide; here the skip is scoped to the tool
	// clients that talk to the self-signed execution endpoints.
	ToolInsecureSkipVerify bool `mapstructure:"tool_insecure_skip_verify" json:"tool_insecure_skip_verify"`
	ToolTimeoutSeconds     int  `mapstructure:"tool_timeout_seconds" json:"tool_timeout_seconds"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".aiva")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvPrefix("AIVA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("listen_addr", "127.0.0.1:8080")
	viper.SetDefault("cors_origins", []string{})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_burst", 0)

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "aiva")
	viper.SetDefault("postgres_password", "aiva_dev_password")
	viper.SetDefault("postgres_db_name", "aiva")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("prompt_variant", VariantAivaClaims)

	viper.SetDefault("script_run_url", "https://aiva.technosmart.id/api/run/")
	viper.SetDefault("raw_query_url", "https://aiva.technosmart.id/api/raw-query/")
	viper.SetDefault("weather_base_url", "https://api.open-meteo.com/v1/forecast")
	viper.SetDefault("tool_insecure_skip_verify", false)
	viper.SetDefault("tool_timeout_seconds", 60)
}

// Validate checks the configuration and returns the first violation found.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.HMACSecret == "" {
		return fmt.Errorf("%w: set AIVA_HMAC_SECRET or hmac_secret", ErrMissingHMACSecret)
	}
	if len(c.HMACSecret) < 32 {
		return fmt.Errorf("%w: need at least 32 bytes, got %d", ErrInvalidHMACSecret, len(c.HMACSecret))
	}

	if c.PostgresHost == "" {
		return ErrInvalidPostgresHost
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return ErrInvalidPostgresDBName
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	switch c.PromptVariant {
	case VariantAivaClaims, VariantAivaData, VariantTitikRecords:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPromptVariant, c.PromptVariant)
	}

	for _, endpoint := range []string{c.ScriptRunURL, c.RawQueryURL, c.WeatherBaseURL} {
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidToolEndpoint, endpoint)
		}
	}

	if c.ToolTimeoutSeconds < 1 || c.ToolTimeoutSeconds > 600 {
		return fmt.Errorf("%w: %d seconds", ErrInvalidToolTimeout, c.ToolTimeoutSeconds)
	}

	return nil
}

// PostgresConnectionString returns the PostgreSQL DSN for pgx.
// Password is single-quoted to survive spaces and '=' characters.
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresUser,
		quoteDSNValue(c.PostgresPassword),
		c.PostgresDBName,
		c.PostgresSSLMode,
	)
}

// PostgresURL returns the connection string in URL format, as required by
// golang-migrate.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDBName,
		RawQuery: "sslmode=" + c.PostgresSSLMode,
	}
	return u.String()
}

// quoteDSNValue quotes a value for PostgreSQL key=value DSN format.
func quoteDSNValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// MarshalJSON masks sensitive fields so Config can be logged safely.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config // Avoid recursion

	masked := alias(*c)
	if masked.PostgresPassword != "" {
		masked.PostgresPassword = "***"
	}
	if masked.HMACSecret != "" {
		masked.HMACSecret = "***"
	}

	return json.Marshal(masked)
}
