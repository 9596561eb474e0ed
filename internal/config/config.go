// Package config loads the master's static configuration from file,
// environment, and defaults, following the layered precedence the rest of
// the curviron stack uses: environment (CURVINE_*) > config file > built-in
// defaults. The only CLI input is --config, which selects the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/curviron/master/internal/auditstore"
)

// Config is the master's full static configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics configures the Prometheus metrics HTTP endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// RPC configures the operation-dispatch listener.
	RPC RPCConfig `mapstructure:"rpc" yaml:"rpc"`

	// Store configures on-disk persistence for the namespace and worker
	// tables.
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// RetryCache bounds the idempotency cache the dispatcher consults for
	// mutating operations.
	RetryCache RetryCacheConfig `mapstructure:"retry_cache" yaml:"retry_cache"`

	// Audit configures where dispatch audit records are written.
	Audit AuditConfig `mapstructure:"audit" yaml:"audit"`

	// LoadService configures the adapter that forwards cache-warming jobs
	// to the external load service.
	LoadService LoadServiceConfig `mapstructure:"load_service" yaml:"load_service"`

	// Auth configures worker bearer-token verification.
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Leader configures the active-master oracle's initial state. There is
	// no leader-election algorithm here; a standalone deployment starts
	// active, and any future coordination layer flips it via SetLeader.
	Leader LeaderConfig `mapstructure:"leader" yaml:"leader"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// RPCConfig configures the length-prefixed wire listener the dispatcher
// reads from.
type RPCConfig struct {
	// ListenAddr is the TCP address the master accepts RPC connections on.
	ListenAddr string `mapstructure:"listen_addr" validate:"required" yaml:"listen_addr"`
}

// StoreConfig configures where the namespace and worker tables persist
// their state.
type StoreConfig struct {
	// NamespacePath is the bbolt database file backing the namespace and
	// mount tables.
	NamespacePath string `mapstructure:"namespace_path" validate:"required" yaml:"namespace_path"`

	// WorkerTablePath is the badger directory backing the worker table.
	WorkerTablePath string `mapstructure:"worker_table_path" validate:"required" yaml:"worker_table_path"`
}

// RetryCacheConfig bounds the dispatcher's idempotency cache.
type RetryCacheConfig struct {
	// Capacity is the maximum number of in-flight and recently-completed
	// request IDs tracked at once. Default: 100000.
	Capacity int `mapstructure:"capacity" validate:"omitempty,min=1" yaml:"capacity"`

	// TTL is how long a completed entry is retained before eviction.
	// Default: 10m.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// AuditConfig configures the dispatcher's audit sink.
type AuditConfig struct {
	// Enabled gates whether any audit record is written.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Sink selects the audit destination: "log", "postgres", or "both".
	Sink string `mapstructure:"sink" validate:"omitempty,oneof=log postgres both" yaml:"sink"`

	// Postgres configures the durable audit store, used when Sink is
	// "postgres" or "both".
	Postgres auditstore.Config `mapstructure:"postgres" yaml:"postgres"`
}

// LoadServiceConfig configures the adapter that proxies load-job
// operations to the external load service.
type LoadServiceConfig struct {
	// Endpoint is the load service's address. Empty disables load-job
	// support: the dispatcher replies ServiceUnavailable for those codes.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// MaxElapsedTime bounds how long the adapter retries a single call
	// before giving up. Default: 30s.
	MaxElapsedTime time.Duration `mapstructure:"max_elapsed_time" yaml:"max_elapsed_time"`
}

// AuthConfig configures worker bearer-token verification.
type AuthConfig struct {
	// Secret is the HMAC signing key shared with worker enrollment. Empty
	// disables token verification entirely.
	Secret string `mapstructure:"secret" yaml:"secret"`

	Issuer        string        `mapstructure:"issuer" yaml:"issuer"`
	TokenDuration time.Duration `mapstructure:"token_duration" yaml:"token_duration"`
}

// LeaderConfig configures the active-master oracle's initial state.
type LeaderConfig struct {
	// Active sets the oracle's starting leadership state. nil means unset
	// and defaults to true (a standalone instance starts as leader).
	Active *bool `mapstructure:"active" yaml:"active"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !found {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, returning a user-facing error when no
// config file exists at the resolved path.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"initialize one with:\n  curvine-master init\n\n"+
				"or pass --config /path/to/config.yaml", GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks cfg against its struct tags via go-playground/validator.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CURVINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns the mapstructure decode hooks applied when
// unmarshaling viper values into Config. time.Duration is the only custom
// type the master's config carries.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return durationDecodeHook()
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "curvine-master")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "curvine-master")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir exposes the configuration directory for the init command.
func GetConfigDir() string {
	return getConfigDir()
}
