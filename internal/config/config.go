package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/freytube/freytube/internal/core/constants"
)

const (
	DefaultPort = 19860
	DefaultHost = "localhost"

	EnvPrefix     = "FREYTUBE"
	EnvConfigFile = "FREYTUBE_CONFIG_FILE"

	StoreTypeMemory = "memory"
	StoreTypeRedis  = "redis"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimits: RateLimitConfig{
				RequestsPerMinute: 300,
				Burst:             30,
				CleanupInterval:   5 * time.Minute,
			},
			RequestLogging: true,
		},
		Instances: InstancesConfig{
			Piped:            append([]string(nil), constants.DefaultPipedInstances...),
			Invidious:        append([]string(nil), constants.DefaultInvidiousInstances...),
			FailureThreshold: constants.DefaultFailureThreshold,
			Cooldown:         constants.DefaultCooldown,
			ResetScope:       constants.ResetScopeProvider,
		},
		Discovery: DiscoveryConfig{
			Enabled:      true,
			PipedURL:     constants.PipedDiscoveryURL,
			InvidiousURL: constants.InvidiousDiscoveryURL,
			Timeout:      constants.DefaultDiscoveryTimeout,
			MaxInvidious: constants.MaxInvidiousInstances,
		},
		Client: ClientConfig{
			UserAgent:      constants.DefaultUserAgent,
			ConnectTimeout: constants.DefaultConnectTimeout,
			ReadTimeout:    constants.DefaultReadTimeout,
			WriteTimeout:   constants.DefaultWriteTimeout,
		},
		Failover: FailoverConfig{
			PrimaryAttempts:  constants.DefaultPrimaryAttempts,
			FallbackAttempts: constants.DefaultFallbackAttempts,
		},
		Store: StoreConfig{
			Type: StoreTypeMemory,
			Redis: RedisConfig{
				Address:   "localhost:6379",
				Namespace: "freytube",
			},
		},
		Downloads: DownloadsConfig{
			Directory:        "./downloads",
			ProgressInterval: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
			Output: "stderr",
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{
				Enabled: true,
			},
			Tracing: TracingConfig{
				Enabled:    false,
				SampleRate: 1.0,
			},
		},
	}
}

// Load reads defaults, then config.yaml (from . or ./config, or FREYTUBE_CONFIG_FILE),
// then FREYTUBE_* environment overrides
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// seeding viper with the defaults makes every key known, so AutomaticEnv
	// can override nested keys during Unmarshal
	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("unable to encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("unable to load defaults: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	filename := ""
	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		filename = configFile
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else {
			filename = v.ConfigFileUsed()
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Filename = filename

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidationError reports the first invalid field found
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate rejects configurations the registry or executor cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return invalid("server.port", fmt.Sprintf("%d is out of range", c.Server.Port))
	}
	if c.Server.RateLimits.RequestsPerMinute < 0 || c.Server.RateLimits.Burst < 0 {
		return invalid("server.rate_limits", "must not be negative")
	}
	if c.Failover.PrimaryAttempts <= 0 {
		return invalid("failover.primary_attempts", "must be positive")
	}
	if c.Failover.FallbackAttempts <= 0 && !c.Failover.DisableFallback {
		return invalid("failover.fallback_attempts", "must be positive, set failover.disable_fallback to skip the fallback tier")
	}
	switch c.Logging.Format {
	case "auto", "json", "text":
	default:
		return invalid("logging.format", fmt.Sprintf("%q is not auto, json or text", c.Logging.Format))
	}
	switch c.Logging.Output {
	case "stdout", "stderr":
	default:
		return invalid("logging.output", fmt.Sprintf("%q is not stdout or stderr", c.Logging.Output))
	}
	if c.Instances.FailureThreshold <= 0 {
		return invalid("instances.failure_threshold", "must be positive")
	}
	if c.Instances.Cooldown <= 0 {
		return invalid("instances.cooldown", "must be positive")
	}
	switch c.Instances.ResetScope {
	case constants.ResetScopeProvider, constants.ResetScopeGlobal:
	default:
		return invalid("instances.reset_scope", fmt.Sprintf("unknown scope %q", c.Instances.ResetScope))
	}
	for _, raw := range append(append([]string(nil), c.Instances.Piped...), c.Instances.Invidious...) {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("instances", fmt.Sprintf("%q is not an absolute URL", raw))
		}
	}
	if c.Client.ConnectTimeout <= 0 || c.Client.ReadTimeout <= 0 {
		return invalid("client", "timeouts must be positive")
	}
	switch c.Store.Type {
	case StoreTypeMemory:
	case StoreTypeRedis:
		if c.Store.Redis.Address == "" {
			return invalid("store.redis.address", "required for the redis store")
		}
	default:
		return invalid("store.type", fmt.Sprintf("unknown store %q", c.Store.Type))
	}
	return nil
}
