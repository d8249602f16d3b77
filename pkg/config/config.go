// Package config loads application configuration from environment variables
// with an optional YAML file overlay, and validates it at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/storefrontd/storefrontd/pkg/observability"
	"github.com/storefrontd/storefrontd/pkg/storage"
)

// ConfigurationError indicates a missing or invalid configuration value.
// It is fatal at startup and never recoverable at request time.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Storage       storage.Config
	Cache         CacheConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	// Health/metrics server (separate port for probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// JWTConfig holds the signing secret and token lifetime. The secret is
// loaded once here and injected; nothing else reads the environment for it.
type JWTConfig struct {
	Secret   string
	Lifetime time.Duration
}

// CacheConfig holds catalog cache configuration
type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisPassword string
	RedisDB       int
	L1Size        int
	TTL           time.Duration
}

// ObservabilityConfig holds logging and telemetry settings
type ObservabilityConfig struct {
	LogLevel observability.LogLevel

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// Load builds configuration from the environment, applies the optional YAML
// file at path (empty path skips the overlay), and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("STOREFRONT_HOST", "0.0.0.0"),
			Port:            getEnv("STOREFRONT_PORT", "8080"),
			ReadTimeout:     getEnvDuration("STOREFRONT_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("STOREFRONT_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("STOREFRONT_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("STOREFRONT_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxBodyBytes:    getEnvInt64("STOREFRONT_MAX_BODY_BYTES", 10<<20),
			HealthPort:      getEnv("STOREFRONT_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:          getEnv("STOREFRONT_DATABASE_URL", ""),
			MaxOpenConns: getEnvInt("STOREFRONT_DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("STOREFRONT_DATABASE_MAX_IDLE_CONNS", 5),
		},
		JWT: JWTConfig{
			Secret:   getEnv("STOREFRONT_JWT_SECRET", ""),
			Lifetime: time.Duration(getEnvInt("STOREFRONT_JWT_LIFETIME", 3600)) * time.Second,
		},
		Storage: loadStorageConfig(),
		Cache: CacheConfig{
			Enabled:       getEnvBool("STOREFRONT_CACHE_ENABLED", false),
			RedisURL:      getEnv("STOREFRONT_REDIS_URL", "localhost:6379"),
			RedisPassword: getEnv("STOREFRONT_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("STOREFRONT_REDIS_DB", 0),
			L1Size:        getEnvInt("STOREFRONT_L1_CACHE_SIZE", 1024),
			TTL:           getEnvDuration("STOREFRONT_CACHE_TTL", 5*time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:           observability.ParseLogLevel(getEnv("STOREFRONT_LOG_LEVEL", "info")),
			OTelEnabled:        getEnvBool("STOREFRONT_OTEL_ENABLED", false),
			OTelEndpoint:       getEnv("STOREFRONT_OTEL_ENDPOINT", "localhost:4317"),
			OTelServiceName:    getEnv("STOREFRONT_OTEL_SERVICE_NAME", "storefrontd"),
			OTelServiceVersion: getEnv("STOREFRONT_OTEL_SERVICE_VERSION", "1.0.0"),
			OTelInsecure:       getEnvBool("STOREFRONT_OTEL_INSECURE", true),
		},
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if storageType := getEnv("STOREFRONT_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = storageType
	}
	if fsRoot := getEnv("STOREFRONT_FILESYSTEM_ROOT", ""); fsRoot != "" {
		cfg.FilesystemRoot = fsRoot
	}
	if endpoint := getEnv("STOREFRONT_S3_ENDPOINT", ""); endpoint != "" {
		cfg.S3Endpoint = endpoint
	}
	if region := getEnv("STOREFRONT_S3_REGION", ""); region != "" {
		cfg.S3Region = region
	}
	if bucket := getEnv("STOREFRONT_S3_BUCKET", ""); bucket != "" {
		cfg.S3Bucket = bucket
	}
	if accessKey := getEnv("STOREFRONT_S3_ACCESS_KEY", ""); accessKey != "" {
		cfg.S3AccessKey = accessKey
	}
	if secretKey := getEnv("STOREFRONT_S3_SECRET_KEY", ""); secretKey != "" {
		cfg.S3SecretKey = secretKey
	}
	if pathStyle := getEnv("STOREFRONT_S3_USE_PATH_STYLE", ""); pathStyle != "" {
		cfg.S3UsePathStyle = strings.ToLower(pathStyle) == "true"
	}

	return cfg
}

// fileConfig is the YAML overlay shape. Only set fields override.
type fileConfig struct {
	Server struct {
		Host       string `yaml:"host"`
		Port       string `yaml:"port"`
		HealthPort string `yaml:"health_port"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	JWT struct {
		Secret          string `yaml:"secret"`
		LifetimeSeconds int    `yaml:"lifetime"`
	} `yaml:"jwt"`
	Storage struct {
		Type           string `yaml:"type"`
		FilesystemRoot string `yaml:"filesystem_root"`
		S3Bucket       string `yaml:"s3_bucket"`
		S3Endpoint     string `yaml:"s3_endpoint"`
		S3Region       string `yaml:"s3_region"`
	} `yaml:"storage"`
	LogLevel string `yaml:"log_level"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigurationError{Key: "config file", Reason: err.Error()}
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return &ConfigurationError{Key: "config file", Reason: "invalid YAML: " + err.Error()}
	}

	if fc.Server.Host != "" {
		c.Server.Host = fc.Server.Host
	}
	if fc.Server.Port != "" {
		c.Server.Port = fc.Server.Port
	}
	if fc.Server.HealthPort != "" {
		c.Server.HealthPort = fc.Server.HealthPort
	}
	if fc.Database.URL != "" {
		c.Database.URL = fc.Database.URL
	}
	if fc.JWT.Secret != "" {
		c.JWT.Secret = fc.JWT.Secret
	}
	if fc.JWT.LifetimeSeconds > 0 {
		c.JWT.Lifetime = time.Duration(fc.JWT.LifetimeSeconds) * time.Second
	}
	if fc.Storage.Type != "" {
		c.Storage.Type = fc.Storage.Type
	}
	if fc.Storage.FilesystemRoot != "" {
		c.Storage.FilesystemRoot = fc.Storage.FilesystemRoot
	}
	if fc.Storage.S3Bucket != "" {
		c.Storage.S3Bucket = fc.Storage.S3Bucket
	}
	if fc.Storage.S3Endpoint != "" {
		c.Storage.S3Endpoint = fc.Storage.S3Endpoint
	}
	if fc.Storage.S3Region != "" {
		c.Storage.S3Region = fc.Storage.S3Region
	}
	if fc.LogLevel != "" {
		c.Observability.LogLevel = observability.ParseLogLevel(fc.LogLevel)
	}

	return nil
}

// Validate checks that the configuration is complete and consistent
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return &ConfigurationError{Key: "server.port", Reason: "required"}
	}
	if c.Server.HealthPort == "" {
		return &ConfigurationError{Key: "server.health_port", Reason: "required"}
	}
	if c.Server.Port == c.Server.HealthPort {
		return &ConfigurationError{Key: "server.health_port", Reason: "must differ from server port"}
	}
	if c.Database.URL == "" {
		return &ConfigurationError{Key: "database.url", Reason: "required"}
	}
	if c.JWT.Secret == "" {
		return &ConfigurationError{Key: "jwt.secret", Reason: "required"}
	}
	if c.JWT.Lifetime <= 0 {
		return &ConfigurationError{Key: "jwt.lifetime", Reason: "must be positive"}
	}

	switch c.Storage.Type {
	case "filesystem":
		if c.Storage.FilesystemRoot == "" {
			return &ConfigurationError{Key: "storage.filesystem_root", Reason: "required for filesystem storage"}
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return &ConfigurationError{Key: "storage.s3_bucket", Reason: "required for s3 storage"}
		}
	default:
		return &ConfigurationError{Key: "storage.type", Reason: "must be filesystem or s3"}
	}

	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return &ConfigurationError{Key: "otel.endpoint", Reason: "required when OTel is enabled"}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
