package config

import "time"

const (
	DefaultServerPort = 8080

	DefaultAnnotatorEndpoint = "http://localhost:9000"
	DefaultDetectorEndpoint  = "http://localhost:8060"
	DefaultServiceTimeout    = 30 * time.Second

	DefaultPatternsPath = "configs/dependency_patterns.json"

	DefaultRedisAddr = "localhost:6379"
	DefaultCacheTTL  = 24 * time.Hour
	DefaultKeyPrefix = "measurelink:"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "measurelink.extractions"

	DefaultWorkerConcurrency = 1

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the pipeline default.
// Fields that have already been set by the caller are left unchanged so that
// explicit configuration always wins.  It must be called after unmarshalling
// and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Annotator.Endpoint == "" {
		cfg.Annotator.Endpoint = DefaultAnnotatorEndpoint
	}
	if cfg.Annotator.Timeout == 0 {
		cfg.Annotator.Timeout = DefaultServiceTimeout
	}
	if cfg.Detector.Endpoint == "" {
		cfg.Detector.Endpoint = DefaultDetectorEndpoint
	}
	if cfg.Detector.Timeout == 0 {
		cfg.Detector.Timeout = DefaultServiceTimeout
	}

	if cfg.Patterns.Path == "" {
		cfg.Patterns.Path = DefaultPatternsPath
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultCacheTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultKeyPrefix
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = time.Second
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults.  It is
// used by the CLI when no config file is present.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
