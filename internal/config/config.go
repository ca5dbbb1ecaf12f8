// Package config loads and validates the Hookline configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the HOOKLINE_ prefix (e.g.,
// HOOKLINE_SERVER_PORT overrides server.port in the YAML).
//
// A handful of secrets are also read from their bare, unprefixed names
// (JWT_SECRET, HUGGINGFACE_API_KEY, HF_API_KEY, GEMINI_API_KEY) because hosting
// platforms and secret managers commonly inject them under those names. The
// prefixed variable always wins when both are set.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends understood by the store factory.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Generation providers.
const (
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
	ProviderNone        = "none"
)

// Rate limiter backends.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Generation GenerationConfig `mapstructure:"generation"`
	Community  CommunityConfig  `mapstructure:"community"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Security   SecurityConfig   `mapstructure:"security"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`

	// configFile is the file viper actually read, empty when running on
	// defaults and environment only. Watch needs it.
	configFile string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For is
	// believed. Empty means the TCP peer is the client.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	// DevMode relaxes startup checks (e.g. a random JWT secret is generated
	// when none is configured).
	DevMode bool `mapstructure:"dev_mode"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	// StatsInterval controls how often store gauges are sampled.
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MinIdleConnections int    `mapstructure:"min_idle_connections"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
}

// AuthConfig holds session and password hashing configuration
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// GenerationConfig configures the remote script generator
type GenerationConfig struct {
	// Provider is one of "huggingface", "gemini" or "none".
	Provider string `mapstructure:"provider"`
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	// Model is only used by the gemini provider.
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxOutputLength   int           `mapstructure:"max_output_length"`
	Temperature       float64       `mapstructure:"temperature"`
	RepetitionPenalty float64       `mapstructure:"repetition_penalty"`
}

// CommunityConfig holds community feed settings
type CommunityConfig struct {
	FeedLimit int `mapstructure:"feed_limit"`
}

// RateLimitConfig throttles the auth and generation endpoints. Off unless
// enabled.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend is "memory" (per process) or "redis" (shared by every instance).
	Backend  string      `mapstructure:"backend"`
	Redis    RedisConfig `mapstructure:"redis"`
	Auth     LimitConfig `mapstructure:"auth"`
	Generate LimitConfig `mapstructure:"generate"`
}

// RedisConfig holds the connection settings for the redis rate limiter
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LimitConfig is a token bucket: RequestsPerMinute refill rate, Burst capacity.
type LimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
	TLS  TLSConfig  `mapstructure:"tls"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
}

// TLSConfig holds TLS/HTTPS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// ProfilingConfig holds profiling configuration
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// configKeys lists every key that can be set from the environment.
var configKeys = []string{
	// Server
	"server.host",
	"server.port",
	"server.base_url",
	"server.read_timeout",
	"server.write_timeout",
	"server.dev_mode",
	"server.trusted_proxies",

	// Storage
	"storage.backend",
	"storage.stats_interval",

	// Database
	"database.host",
	"database.port",
	"database.name",
	"database.user",
	"database.password",
	"database.ssl_mode",
	"database.max_connections",
	"database.min_idle_connections",
	"database.auto_migrate",

	// Auth
	"auth.jwt_secret",
	"auth.token_ttl",
	"auth.bcrypt_cost",

	// Generation
	"generation.provider",
	"generation.endpoint",
	"generation.api_key",
	"generation.model",
	"generation.timeout",
	"generation.max_output_length",
	"generation.temperature",
	"generation.repetition_penalty",

	// Community
	"community.feed_limit",

	// Rate limiting
	"rate_limit.enabled",
	"rate_limit.backend",
	"rate_limit.redis.addr",
	"rate_limit.redis.password",
	"rate_limit.redis.db",
	"rate_limit.auth.requests_per_minute",
	"rate_limit.auth.burst",
	"rate_limit.generate.requests_per_minute",
	"rate_limit.generate.burst",

	// Security
	"security.cors.allowed_origins",
	"security.cors.allowed_methods",
	"security.tls.enabled",
	"security.tls.cert_file",
	"security.tls.key_file",

	// Logging
	"logging.level",
	"logging.format",

	// Telemetry
	"telemetry.metrics.enabled",
	"telemetry.metrics.prometheus_port",
	"telemetry.profiling.enabled",
	"telemetry.profiling.port",
}

// bindEnvVars explicitly binds environment variables to config keys.
// AutomaticEnv alone is not consulted by Unmarshal for nested keys.
func bindEnvVars(v *viper.Viper) error {
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/hookline")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment variables
	}

	v.SetEnvPrefix("HOOKLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.configFile = v.ConfigFileUsed()

	// Expand environment variables in sensitive fields
	cfg.Database.Password = expandEnv(cfg.Database.Password)
	cfg.Auth.JWTSecret = expandEnv(cfg.Auth.JWTSecret)
	cfg.Generation.APIKey = expandEnv(cfg.Generation.APIKey)
	cfg.RateLimit.Redis.Password = expandEnv(cfg.RateLimit.Redis.Password)

	applyLegacySecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.base_url", "http://localhost:5000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.trusted_proxies", []string{})

	// Storage defaults
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.stats_interval", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "hookline")
	v.SetDefault("database.user", "hookline")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_idle_connections", 5)
	v.SetDefault("database.auto_migrate", true)

	// Auth defaults
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("auth.bcrypt_cost", 10)

	// Generation defaults
	v.SetDefault("generation.provider", ProviderHuggingFace)
	v.SetDefault("generation.endpoint", "https://api-inference.huggingface.co/models/microsoft/DialoGPT-large")
	v.SetDefault("generation.model", "gemini-2.5-flash")
	v.SetDefault("generation.timeout", "20s")
	v.SetDefault("generation.max_output_length", 500)
	v.SetDefault("generation.temperature", 0.8)
	v.SetDefault("generation.repetition_penalty", 1.1)

	// Community defaults
	v.SetDefault("community.feed_limit", 6)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.backend", RateLimitBackendMemory)
	v.SetDefault("rate_limit.redis.addr", "localhost:6379")
	v.SetDefault("rate_limit.redis.db", 0)
	v.SetDefault("rate_limit.auth.requests_per_minute", 10)
	v.SetDefault("rate_limit.auth.burst", 5)
	v.SetDefault("rate_limit.generate.requests_per_minute", 30)
	v.SetDefault("rate_limit.generate.burst", 5)

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("security.tls.enabled", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Telemetry defaults
	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.prometheus_port", 9090)
	v.SetDefault("telemetry.profiling.enabled", false)
	v.SetDefault("telemetry.profiling.port", 6060)
}

// expandEnv expands environment variables in the format ${VAR_NAME}
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// applyLegacySecrets fills empty secrets from their unprefixed variables.
func applyLegacySecrets(cfg *Config) {
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.Generation.APIKey != "" {
		return
	}
	var names []string
	switch cfg.Generation.Provider {
	case ProviderGemini:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		names = []string{"HUGGINGFACE_API_KEY", "HF_API_KEY"}
	}
	for _, name := range names {
		if key := os.Getenv(name); key != "" {
			cfg.Generation.APIKey = key
			return
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("invalid server.trusted_proxies entry: %q", p)
			}
		}
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required when using the postgres backend")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required when using the postgres backend")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required when using the postgres backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be memory or postgres)", c.Storage.Backend)
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("invalid auth.bcrypt_cost: %d (must be between 4 and 31)", c.Auth.BcryptCost)
	}

	switch c.Generation.Provider {
	case ProviderHuggingFace:
		if c.Generation.Endpoint == "" {
			return fmt.Errorf("generation.endpoint is required for the huggingface provider")
		}
	case ProviderGemini:
		if c.Generation.Model == "" {
			return fmt.Errorf("generation.model is required for the gemini provider")
		}
	case ProviderNone:
	default:
		return fmt.Errorf("invalid generation provider: %s (must be huggingface, gemini, or none)", c.Generation.Provider)
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be positive")
	}

	if c.RateLimit.Enabled {
		if err := c.RateLimit.validate(); err != nil {
			return err
		}
	}

	if c.Security.TLS.Enabled {
		if c.Security.TLS.CertFile == "" {
			return fmt.Errorf("security.tls.cert_file is required when TLS is enabled")
		}
		if c.Security.TLS.KeyFile == "" {
			return fmt.Errorf("security.tls.key_file is required when TLS is enabled")
		}
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

func (c *RateLimitConfig) validate() error {
	switch c.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("rate_limit.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid rate_limit backend: %s (must be memory or redis)", c.Backend)
	}
	for name, l := range map[string]LimitConfig{"auth": c.Auth, "generate": c.Generate} {
		if l.RequestsPerMinute <= 0 || l.Burst <= 0 {
			return fmt.Errorf("rate_limit.%s requires positive requests_per_minute and burst", name)
		}
	}
	return nil
}

// ConfigFileUsed returns the path of the config file that was read, or ""
// when configuration came from defaults and the environment only.
func (c *Config) ConfigFileUsed() string {
	return c.configFile
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetAddress returns the server address in host:port format
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
