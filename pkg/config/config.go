// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Search, Suggest, Resources, Redis, Kafka, Postgres, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Search    SearchConfig    `yaml:"search"`
	Suggest   SuggestConfig   `yaml:"suggest"`
	Resources ResourcesConfig `yaml:"resources"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings. A RateLimit of 0 disables
// per-client limiting. AdminKeyHashes are SHA-256 hex digests of the keys
// accepted by administrative endpoints.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	RateLimit       int           `yaml:"rateLimit"`
	RateLimitWindow time.Duration `yaml:"rateLimitWindow"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
	AdminKeyHashes  []string      `yaml:"adminKeyHashes"`
}

// StrategyWeights scales each strategy's raw score before merging.
type StrategyWeights struct {
	Exact  float64 `yaml:"exact"`
	Morph  float64 `yaml:"morph"`
	Prefix float64 `yaml:"prefix"`
	NGram  float64 `yaml:"ngram"`
	Vector float64 `yaml:"vector"`
}

// SearchConfig controls strategy scoring, the merge cap and execution
// budgets of a full search.
type SearchConfig struct {
	Weights         StrategyWeights `yaml:"weights"`
	PrefixMinScore  float64         `yaml:"prefixMinScore"`
	PrefixMaxKeys   int             `yaml:"prefixMaxKeys"`
	NGramMinOverlap float64         `yaml:"ngramMinOverlap"`
	VectorThreshold float64         `yaml:"vectorThreshold"`
	FrequencyWeight float64         `yaml:"frequencyWeight"`
	ScriptBonus     float64         `yaml:"scriptBonus"`
	PageSize        int             `yaml:"pageSize"`
	MaxResults      int             `yaml:"maxResults"`
	MaxQueryLength  int             `yaml:"maxQueryLength"`
	StrategyTimeout time.Duration   `yaml:"strategyTimeout"`
	Workers         int             `yaml:"workers"`
}

// SuggestConfig controls the autocomplete path.
type SuggestConfig struct {
	DefaultLimit   int           `yaml:"defaultLimit"`
	MaxLimit       int           `yaml:"maxLimit"`
	MaxInputLength int           `yaml:"maxInputLength"`
	Timeout        time.Duration `yaml:"timeout"`
}

// ResourcesConfig selects the dictionary source the index is built from.
// Source is one of "pack", "postgres" or "sqlite".
type ResourcesConfig struct {
	Source      string        `yaml:"source"`
	PackPath    string        `yaml:"packPath"`
	SQLitePath  string        `yaml:"sqlitePath"`
	Table       string        `yaml:"table"`
	LoadTimeout time.Duration `yaml:"loadTimeout"`
}

// AnalyzerConfig controls the morphological analyzer.
type AnalyzerConfig struct {
	Enabled   bool `yaml:"enabled"`
	CacheSize int  `yaml:"cacheSize"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
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
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SearchEvents string `yaml:"searchEvents"`
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

// AnalyticsConfig controls search event collection and aggregation.
// Snapshots is one of "none", "postgres" or "sqlite".
type AnalyticsConfig struct {
	BufferSize       int           `yaml:"bufferSize"`
	BatchSize        int           `yaml:"batchSize"`
	FlushInterval    time.Duration `yaml:"flushInterval"`
	Snapshots        string        `yaml:"snapshots"`
	SnapshotPath     string        `yaml:"snapshotPath"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
	Port             int           `yaml:"port"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
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

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  5 * time.Second,
			RateLimit:       600,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Search: SearchConfig{
			Weights: StrategyWeights{
				Exact:  1.0,
				Morph:  0.9,
				Prefix: 0.75,
				NGram:  0.6,
				Vector: 0.5,
			},
			PrefixMinScore:  0.3,
			PrefixMaxKeys:   2000,
			NGramMinOverlap: 0.5,
			VectorThreshold: 0.2,
			FrequencyWeight: 0.01,
			ScriptBonus:     0.05,
			PageSize:        30,
			MaxResults:      100,
			MaxQueryLength:  256,
			StrategyTimeout: 300 * time.Millisecond,
			Workers:         5,
		},
		Suggest: SuggestConfig{
			DefaultLimit:   10,
			MaxLimit:       30,
			MaxInputLength: 37,
			Timeout:        100 * time.Millisecond,
		},
		Resources: ResourcesConfig{
			Source:      "pack",
			PackPath:    "data/dictionary.pack",
			SQLitePath:  "data/dictionary.db",
			Table:       "entries",
			LoadTimeout: 5 * time.Minute,
		},
		Analyzer: AnalyzerConfig{
			Enabled:   true,
			CacheSize: 4096,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "dictionary",
			User:            "dictionary",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "dictionary-analytics",
			Topics: KafkaTopics{
				SearchEvents: "search-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Analytics: AnalyticsConfig{
			BufferSize:       10000,
			BatchSize:        100,
			FlushInterval:    time.Second,
			Snapshots:        "none",
			SnapshotPath:     "data/analytics.db",
			SnapshotInterval: time.Minute,
			Port:             8084,
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

// Validate rejects weights and thresholds that would break score ordering.
// An exact hit must never weigh less than any other strategy.
func (c *Config) Validate() error {
	w := c.Search.Weights
	for name, v := range map[string]float64{
		"exact": w.Exact, "morph": w.Morph, "prefix": w.Prefix, "ngram": w.NGram, "vector": w.Vector,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("search.weights.%s must be in (0,1], got %v", name, v)
		}
	}
	if w.Exact < w.Morph || w.Exact < w.Prefix || w.Exact < w.NGram || w.Exact < w.Vector {
		return fmt.Errorf("search.weights.exact (%v) must not be lower than any other weight", w.Exact)
	}
	for name, v := range map[string]float64{
		"prefixMinScore":  c.Search.PrefixMinScore,
		"ngramMinOverlap": c.Search.NGramMinOverlap,
		"vectorThreshold": c.Search.VectorThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("search.%s must be in [0,1], got %v", name, v)
		}
	}
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search.pageSize must be positive, got %d", c.Search.PageSize)
	}
	if c.Search.MaxResults < c.Search.PageSize {
		return fmt.Errorf("search.maxResults (%d) must be >= pageSize (%d)", c.Search.MaxResults, c.Search.PageSize)
	}
	if c.Search.Workers <= 0 {
		return fmt.Errorf("search.workers must be positive, got %d", c.Search.Workers)
	}
	if c.Search.StrategyTimeout <= 0 {
		return fmt.Errorf("search.strategyTimeout must be positive")
	}
	if c.Server.RateLimit < 0 || (c.Server.RateLimit > 0 && c.Server.RateLimitWindow <= 0) {
		return fmt.Errorf("server.rateLimit needs a non-negative limit and a positive window")
	}
	switch c.Resources.Source {
	case "pack", "postgres", "sqlite":
	default:
		return fmt.Errorf("resources.source must be pack, postgres or sqlite, got %q", c.Resources.Source)
	}
	switch c.Analytics.Snapshots {
	case "none", "postgres", "sqlite":
	default:
		return fmt.Errorf("analytics.snapshots must be none, postgres or sqlite, got %q", c.Analytics.Snapshots)
	}
	return nil
}

// applyEnvOverrides reads DS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DS_RESOURCES_SOURCE"); v != "" {
		cfg.Resources.Source = v
	}
	if v := os.Getenv("DS_RESOURCES_PACK_PATH"); v != "" {
		cfg.Resources.PackPath = v
	}
	if v := os.Getenv("DS_RESOURCES_SQLITE_PATH"); v != "" {
		cfg.Resources.SQLitePath = v
	}
	if v := os.Getenv("DS_SEARCH_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.PageSize = n
		}
	}
	if v := os.Getenv("DS_SEARCH_STRATEGY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.StrategyTimeout = d
		}
	}
	if v := os.Getenv("DS_ANALYZER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Analyzer.Enabled = b
		}
	}
	if v := os.Getenv("DS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("DS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("DS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("DS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("DS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("DS_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("DS_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("DS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("DS_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("DS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DS_ANALYTICS_SNAPSHOTS"); v != "" {
		cfg.Analytics.Snapshots = v
	}
	if v := os.Getenv("DS_SERVER_ADMIN_KEY_HASHES"); v != "" {
		cfg.Server.AdminKeyHashes = strings.Split(v, ",")
	}
	if v := os.Getenv("DS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
