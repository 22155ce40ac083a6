package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Filename  string          `yaml:"-" mapstructure:"-"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Instances InstancesConfig `yaml:"instances" mapstructure:"instances"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Client    ClientConfig    `yaml:"client" mapstructure:"client"`
	Failover  FailoverConfig  `yaml:"failover" mapstructure:"failover"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Downloads DownloadsConfig `yaml:"downloads" mapstructure:"downloads"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// ServerConfig holds the local HTTP API configuration
type ServerConfig struct {
	Host            string          `yaml:"host" mapstructure:"host"`
	Port            int             `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	RateLimits      RateLimitConfig `yaml:"rate_limits" mapstructure:"rate_limits"`
	RequestLogging  bool            `yaml:"request_logging" mapstructure:"request_logging"`
}

// RateLimitConfig bounds how fast one client may call the catalog API.
// RequestsPerMinute of 0 disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// GetAddress returns the server address in host:port format
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// InstancesConfig seeds the registry and sets its health policy
type InstancesConfig struct {
	ResetScope       string        `yaml:"reset_scope" mapstructure:"reset_scope"`
	Piped            []string      `yaml:"piped" mapstructure:"piped"`
	Invidious        []string      `yaml:"invidious" mapstructure:"invidious"`
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
}

// DiscoveryConfig holds the live instance directory settings
type DiscoveryConfig struct {
	PipedURL     string        `yaml:"piped_url" mapstructure:"piped_url"`
	InvidiousURL string        `yaml:"invidious_url" mapstructure:"invidious_url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxInvidious int           `yaml:"max_invidious" mapstructure:"max_invidious"`
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
}

// ClientConfig holds the provider HTTP client settings
type ClientConfig struct {
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// RequestTimeout bounds a whole request: connect plus read
func (c *ClientConfig) RequestTimeout() time.Duration {
	return c.ConnectTimeout + c.ReadTimeout
}

type FailoverConfig struct {
	PrimaryAttempts  int  `yaml:"primary_attempts" mapstructure:"primary_attempts"`
	FallbackAttempts int  `yaml:"fallback_attempts" mapstructure:"fallback_attempts"`
	DisableFallback  bool `yaml:"disable_fallback" mapstructure:"disable_fallback"`
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	Type  string      `yaml:"type" mapstructure:"type"` // memory or redis
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

type RedisConfig struct {
	Address   string `yaml:"address" mapstructure:"address"`
	Password  string `yaml:"password" mapstructure:"password"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	DB        int    `yaml:"db" mapstructure:"db"`
}

type DownloadsConfig struct {
	Directory        string        `yaml:"directory" mapstructure:"directory"`
	ProgressInterval time.Duration `yaml:"progress_interval" mapstructure:"progress_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// TracingConfig enables failover spans, which are logged at debug level as they end
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}
