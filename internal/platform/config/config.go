package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pstrings "credo/pkg/platform/strings"
)

// StoreBackend selects where registry state lives.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StorePostgres StoreBackend = "postgres"
	StoreRedis    StoreBackend = "redis"
)

// Config is the full service configuration.
type Config struct {
	Server    Server          `yaml:"server"`
	Store     StoreBackend    `yaml:"store"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Audit     AuditConfig     `yaml:"audit"`
	// InitialOwner becomes the registry owner on first start. Ignored once the
	// store has been initialized.
	InitialOwner string `yaml:"initial_owner"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`
}

type PostgresConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds go-redis pool settings. An empty URL means Redis is not
// configured.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig enables the registry event sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replication_factor"`
}

type AuthConfig struct {
	JWTSigningKey string        `yaml:"jwt_signing_key"`
	JWTIssuer     string        `yaml:"jwt_issuer"`
	JWTAudience   string        `yaml:"jwt_audience"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
}

// RateLimitConfig bounds mutating calls per caller. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// AuditConfig sizes the async event buffer. Zero publishes synchronously.
type AuditConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// Default returns development defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			LogLevel:        "info",
		},
		Store: StoreMemory,
		Postgres: PostgresConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:             "credo.registry.events",
			Partitions:        1,
			ReplicationFactor: 1,
		},
		Auth: AuthConfig{
			// Use a default for development - should be overridden in production
			JWTSigningKey: "dev-secret-key-change-in-production",
			JWTIssuer:     "credo",
			JWTAudience:   "credo-registry",
			TokenTTL:      time.Hour,
		},
		RateLimit: RateLimitConfig{
			RPS:   10,
			Burst: 20,
		},
		Audit: AuditConfig{
			BufferSize: 256,
		},
	}
}

// FromEnv builds a Config from defaults, the YAML file named by CREDO_CONFIG
// (if any) and finally environment variables.
func FromEnv() (Config, error) {
	return Load(os.Getenv("CREDO_CONFIG"))
}

// Load layers the YAML file at path (skipped when empty) and environment
// overrides on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.URL == "" {
			return errors.New("postgres store requires CREDO_DATABASE_URL")
		}
	case StoreRedis:
		if c.Redis.URL == "" {
			return errors.New("redis store requires CREDO_REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store)
	}
	if c.Auth.JWTSigningKey == "" {
		return errors.New("jwt signing key must not be empty")
	}
	if c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "CREDO_ADDR")
	setString(&cfg.Server.LogLevel, "CREDO_LOG_LEVEL")
	if v := strings.TrimSpace(os.Getenv("CREDO_STORE")); v != "" {
		cfg.Store = StoreBackend(strings.ToLower(v))
	}
	setString(&cfg.Postgres.URL, "CREDO_DATABASE_URL")
	setString(&cfg.Redis.URL, "CREDO_REDIS_URL")
	if v := os.Getenv("CREDO_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = pstrings.SplitList(v)
	}
	setString(&cfg.Kafka.Topic, "CREDO_KAFKA_TOPIC")
	setString(&cfg.Auth.JWTSigningKey, "JWT_SIGNING_KEY")
	setString(&cfg.Auth.JWTIssuer, "CREDO_JWT_ISSUER")
	setString(&cfg.InitialOwner, "CREDO_INITIAL_OWNER")

	if err := setDuration(&cfg.Server.RequestTimeout, "CREDO_REQUEST_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Auth.TokenTTL, "CREDO_TOKEN_TTL"); err != nil {
		return err
	}
	if v := os.Getenv("CREDO_RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CREDO_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RPS = rps
	}
	if err := setInt(&cfg.RateLimit.Burst, "CREDO_RATE_LIMIT_BURST"); err != nil {
		return err
	}
	if err := setInt(&cfg.Audit.BufferSize, "CREDO_AUDIT_BUFFER"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
