package config

import (
	"strings"
	"time"
)

// ApplyDefaults fills unset fields with conservative defaults. Zero values
// are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyRPCDefaults(&cfg.RPC)
	applyStoreDefaults(&cfg.Store)
	applyRetryCacheDefaults(&cfg.RetryCache)
	applyAuditDefaults(&cfg.Audit)
	applyLoadServiceDefaults(&cfg.LoadService)
	applyAuthDefaults(&cfg.Auth)
	applyLeaderDefaults(&cfg.Leader)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyRPCDefaults(cfg *RPCConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8995"
	}
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.NamespacePath == "" {
		cfg.NamespacePath = "/var/lib/curvine-master/namespace.db"
	}
	if cfg.WorkerTablePath == "" {
		cfg.WorkerTablePath = "/var/lib/curvine-master/workers"
	}
}

func applyRetryCacheDefaults(cfg *RetryCacheConfig) {
	if cfg.Capacity == 0 {
		cfg.Capacity = 100000
	}
	if cfg.TTL == 0 {
		cfg.TTL = 10 * time.Minute
	}
}

func applyAuditDefaults(cfg *AuditConfig) {
	if cfg.Sink == "" {
		cfg.Sink = "log"
	}
	cfg.Postgres.ApplyDefaults()
}

func applyLoadServiceDefaults(cfg *LoadServiceConfig) {
	if cfg.MaxElapsedTime == 0 {
		cfg.MaxElapsedTime = 30 * time.Second
	}
}

func applyLeaderDefaults(cfg *LeaderConfig) {
	if cfg.Active == nil {
		active := true
		cfg.Active = &active
	}
}

func applyAuthDefaults(cfg *AuthConfig) {
	if cfg.Issuer == "" {
		cfg.Issuer = "curvine-master"
	}
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = 24 * time.Hour
	}
}

// GetDefaultConfig returns a Config with every default applied, useful for
// generating sample files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Store: StoreConfig{
			NamespacePath:   "/var/lib/curvine-master/namespace.db",
			WorkerTablePath: "/var/lib/curvine-master/workers",
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
