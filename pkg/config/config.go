// Package config loads and validates the search server configuration from a
// YAML file with environment-variable overrides. Every subsystem (server,
// engine, search, request queue, Redis, Kafka, Postgres, logging, metrics) has
// its own typed section.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Engine       EngineConfig       `yaml:"engine"`
	Search       SearchConfig       `yaml:"search"`
	RequestQueue RequestQueueConfig `yaml:"requestQueue"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Redis        RedisConfig        `yaml:"redis"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// EngineConfig controls the in-memory index and its execution policy.
type EngineConfig struct {
	StopWords         []string `yaml:"stopWords"`
	Parallel          bool     `yaml:"parallel"`
	Workers           int      `yaml:"workers"`
	AccumulatorShards int      `yaml:"accumulatorShards"`
}

// SearchConfig controls batch query execution.
type SearchConfig struct {
	MaxConcurrentQueries int           `yaml:"maxConcurrentQueries"`
	BatchTimeout         time.Duration `yaml:"batchTimeout"`
	PageSize             int           `yaml:"pageSize"`
	CacheEnabled         bool          `yaml:"cacheEnabled"`
}

// RequestQueueConfig controls the sliding request window and its optional
// rate limit. A zero RatePerSecond disables limiting.
type RequestQueueConfig struct {
	Window        int     `yaml:"window"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
	Burst         int     `yaml:"burst"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	DocumentsTable  string        `yaml:"documentsTable"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumerGroup"`
	DocumentTopic string   `yaml:"documentTopic"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Engine: EngineConfig{
			StopWords:         []string{"a", "an", "and", "in", "of", "on", "the", "with"},
			Parallel:          true,
			Workers:           8,
			AccumulatorShards: 64,
		},
		Search: SearchConfig{
			MaxConcurrentQueries: 16,
			BatchTimeout:         5 * time.Second,
			PageSize:             2,
		},
		RequestQueue: RequestQueueConfig{
			Window: 1440,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "searchserver",
			User:            "searchserver",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			DocumentsTable:  "documents",
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "searchserver-indexer",
			DocumentTopic: "document-events",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 {
		problems = append(problems, "server.port must be positive")
	}
	if c.Engine.Parallel && c.Engine.Workers <= 0 {
		problems = append(problems, "engine.workers must be positive when engine.parallel is set")
	}
	if c.Engine.AccumulatorShards <= 0 {
		problems = append(problems, "engine.accumulatorShards must be positive")
	}
	if c.Search.MaxConcurrentQueries <= 0 {
		problems = append(problems, "search.maxConcurrentQueries must be positive")
	}
	if c.Search.PageSize <= 0 {
		problems = append(problems, "search.pageSize must be positive")
	}
	if c.RequestQueue.Window <= 0 {
		problems = append(problems, "requestQueue.window must be positive")
	}
	if c.RequestQueue.RatePerSecond < 0 {
		problems = append(problems, "requestQueue.ratePerSecond must not be negative")
	}
	if c.RequestQueue.RatePerSecond > 0 && c.RequestQueue.Burst <= 0 {
		problems = append(problems, "requestQueue.burst must be positive when a rate is set")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		problems = append(problems, "kafka.brokers must not be empty when kafka is enabled")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// applyEnvOverrides reads SS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SS_ENGINE_STOP_WORDS"); v != "" {
		cfg.Engine.StopWords = strings.Fields(v)
	}
	if v := os.Getenv("SS_ENGINE_PARALLEL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.Parallel = b
		}
	}
	if v := os.Getenv("SS_ENGINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = n
		}
	}
	if v := os.Getenv("SS_REQUEST_QUEUE_RATE"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RequestQueue.RatePerSecond = r
		}
	}
	if v := os.Getenv("SS_REQUEST_QUEUE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RequestQueue.Burst = n
		}
	}
	if v := os.Getenv("SS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
