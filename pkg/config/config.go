package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"UpliftAPI/pkg/util"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"500ms"`
	} `yaml:"server"`
	Logging struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"json"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"uplift-logs"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Models struct {
		Source   string        `yaml:"source" default:"file"`
		Dir      string        `yaml:"dir" default:"models"`
		BaseURL  string        `yaml:"base_url"`
		Discount string        `yaml:"discount" default:"model_discount.json"`
		Bogo     string        `yaml:"bogo" default:"model_bogo.json"`
		Lazy     bool          `yaml:"lazy"`
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"models"`
	Cache struct {
		Enabled       bool          `yaml:"enabled"`
		Backend       string        `yaml:"backend" default:"memory"`
		TTL           time.Duration `yaml:"ttl" default:"10m"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"10000"`
		// expired-entry sweep period of the in-process LRU
		MemoryCleanupInterval time.Duration `yaml:"memory_cleanup_interval" default:"5m"`

		Redis struct {
			Addr         string        `yaml:"addr" default:"localhost:6379"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			Prefix       string        `yaml:"prefix" default:"uplift"`
			PoolSize     int           `yaml:"pool_size" default:"10"`
			MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
			PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Compression  string   `yaml:"compression" default:"gzip"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
	} `yaml:"kafka"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps" default:"50"`
		Burst   int     `yaml:"burst" default:"100"`
	} `yaml:"ratelimit"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
}

// Default returns a config with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads .env (if present) and the YAML config, then overrides with
// environment variables.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := getenv("MODEL_DIR"); v != "" {
		c.Models.Dir = v
	}
	if v := getenv("DISCOUNT_MODEL"); v != "" {
		c.Models.Discount = v
	}
	if v := getenv("BOGO_MODEL"); v != "" {
		c.Models.Bogo = v
	}
	if v := getenv("MODELS_LAZY"); v != "" {
		c.Models.Lazy = util.ParseBoolDefault(v, c.Models.Lazy)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitAndTrim(v, ",")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	switch c.Models.Source {
	case "file":
		if c.Models.Dir == "" {
			return fmt.Errorf("models.dir is required for file source")
		}
	case "http":
		if c.Models.BaseURL == "" {
			return fmt.Errorf("models.base_url is required for http source")
		}
	default:
		return fmt.Errorf("models.source must be file or http, got %q", c.Models.Source)
	}
	if strings.TrimSpace(c.Models.Discount) == "" || strings.TrimSpace(c.Models.Bogo) == "" {
		return fmt.Errorf("models.discount and models.bogo are required")
	}
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "memory", "redis", "layered":
		default:
			return fmt.Errorf("cache.backend must be memory, redis or layered, got %q", c.Cache.Backend)
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive")
		}
		if c.Cache.MemoryCleanupInterval <= 0 {
			return fmt.Errorf("cache.memory_cleanup_interval must be positive")
		}
		if c.Cache.Backend != "memory" && c.Cache.Redis.PoolSize <= 0 {
			return fmt.Errorf("cache.redis.pool_size must be positive")
		}
	}
	if c.Logging.Collector.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when logging.collector is enabled")
		}
		if c.Logging.Collector.Topic == "" {
			return fmt.Errorf("logging.collector.topic is required")
		}
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("ratelimit.rps and ratelimit.burst must be positive")
	}
	return nil
}
