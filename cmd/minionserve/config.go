package main

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ruslano69/minionview/pkg/cache"
	"github.com/ruslano69/minionview/pkg/core/filter"
	"github.com/ruslano69/minionview/pkg/dataset"
	"github.com/ruslano69/minionview/pkg/refresh"
	"github.com/ruslano69/minionview/pkg/retry"
)

// Environment overrides, applied after the config file.
const (
	envDataset   = "MINIONVIEW_DATASET"
	envRedisAddr = "MINIONVIEW_REDIS_ADDR"
	envAddr      = "MINIONVIEW_ADDR"
)

// Config is the minionserve configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Dataset dataset.Config `yaml:"dataset"`
	Cache   cache.Config   `yaml:"cache"`
	Refresh refresh.Config `yaml:"refresh"` // reload on broker messages; empty type = off
	Retry   retry.Config   `yaml:"retry"`   // remote fetches and broker reconnects
	Log     LogConfig      `yaml:"log"`
	UI      UIConfig       `yaml:"ui"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`            // default ":8080"
	ReadTimeout    time.Duration `yaml:"read_timeout"`    // default 10s
	WriteTimeout   time.Duration `yaml:"write_timeout"`   // default 60s, exports can be slow
	RequestTimeout time.Duration `yaml:"request_timeout"` // default 30s
}

// LogConfig selects the zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// UIConfig holds page settings.
type UIConfig struct {
	Name        string `yaml:"name"`         // navbar title
	PageSize    int    `yaml:"page_size"`    // rows per page
	ExportLimit int    `yaml:"export_limit"` // max rows in one XLSX export
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 60 * time.Second
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Dataset.Location = "data/sheep_minion_combinations.db"
	cfg.Dataset.Timeout = 60 * time.Second
	cfg.Cache.TTL = cache.DefaultTTL
	cfg.Retry = retry.DefaultConfig()
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	cfg.UI.Name = "Minion Explorer"
	cfg.UI.PageSize = 20
	cfg.UI.ExportLimit = 100_000
	return cfg
}

// loadConfig applies defaults, the YAML file at path (optional), then the
// environment, and validates the result.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	if v := os.Getenv(envDataset); v != "" {
		cfg.Dataset.Location = v
	}
	if v := os.Getenv(envRedisAddr); v != "" {
		cfg.Cache.Address = v
		cfg.Cache.Enabled = true
	}
	if v := os.Getenv(envAddr); v != "" {
		cfg.Server.Addr = v
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Dataset.Retry = cfg.Retry
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	kind := strings.ToLower(c.Dataset.Type)
	if kind != "" && !slices.Contains(dataset.Types(), kind) {
		return fmt.Errorf("dataset.type: unknown type %q (%s)", c.Dataset.Type, strings.Join(dataset.Types(), "/"))
	}
	switch kind {
	case "postgres", "mysql", "mssql":
		if c.Dataset.DSN == "" {
			return fmt.Errorf("dataset.dsn is required for type %q", kind)
		}
	default:
		if c.Dataset.Location == "" {
			return fmt.Errorf("dataset.location is required")
		}
	}

	if c.Cache.Enabled && c.Cache.Address == "" {
		return fmt.Errorf("cache.address is required when the cache is enabled")
	}
	if c.Refresh.Enabled() {
		switch c.Refresh.Type {
		case "kafka":
			if len(c.Refresh.Brokers) == 0 || c.Refresh.Topic == "" {
				return fmt.Errorf("refresh: kafka needs brokers and topic")
			}
		case "rabbitmq":
			if c.Refresh.Queue == "" {
				return fmt.Errorf("refresh: rabbitmq needs queue")
			}
		default:
			return fmt.Errorf("refresh.type: unknown broker %q (kafka/rabbitmq)", c.Refresh.Type)
		}
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}

	if c.UI.PageSize <= 0 || c.UI.PageSize > filter.MaxPageSize {
		return fmt.Errorf("ui.page_size must be between 1 and %d, got %d", filter.MaxPageSize, c.UI.PageSize)
	}
	if c.UI.ExportLimit <= 0 {
		return fmt.Errorf("ui.export_limit must be positive")
	}
	return nil
}
