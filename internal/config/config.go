package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig points at the SQLite catalog.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DataConfig points at the per-mode seed JSON files.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// KnowledgeConfig configures advisory retrieval.
type KnowledgeConfig struct {
	Dir  string `yaml:"dir"`
	TopK int    `yaml:"top_k"`
}

// LogConfig configures logging and telemetry output.
type LogConfig struct {
	Dir   string `yaml:"dir"`
	Debug bool   `yaml:"debug"`
}

// TelemetryConfig toggles the OpenTelemetry exporters.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SessionConfig bounds conversational memory.
type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// OffersConfig configures the website offer simulation.
type OffersConfig struct {
	Sites int `yaml:"sites"`
	// Seed fixes the random sequence; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
}

// EntityConfig tunes fuzzy city matching.
type EntityConfig struct {
	Threshold int `yaml:"threshold"`
	Limit     int `yaml:"limit"`
}

// Config holds application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Data      DataConfig      `yaml:"data"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Log       LogConfig       `yaml:"log"`
	Session   SessionConfig   `yaml:"session"`
	Offers    OffersConfig    `yaml:"offers"`
	Entity    EntityConfig    `yaml:"entity"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Addr: ":5000"},
		Database:  DatabaseConfig{Path: "database.db"},
		Data:      DataConfig{Dir: "data"},
		Knowledge: KnowledgeConfig{Dir: "knowledge_base", TopK: 3},
		Log:       LogConfig{Dir: "logs"},
		Session:   SessionConfig{TTL: 30 * time.Minute, CleanupInterval: 5 * time.Minute},
		Offers:    OffersConfig{Sites: 4},
		Entity:    EntityConfig{Threshold: 60, Limit: 5},
		Telemetry: TelemetryConfig{Enabled: true},
	}
}

// Load reads a YAML config from path on top of the defaults. An empty path
// or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TRAVIA_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("TRAVIA_ADDR", &c.Server.Addr)
	str("TRAVIA_DB_PATH", &c.Database.Path)
	str("TRAVIA_DATA_DIR", &c.Data.Dir)
	str("TRAVIA_KB_DIR", &c.Knowledge.Dir)
	str("TRAVIA_LOG_DIR", &c.Log.Dir)

	if v := getenv("TRAVIA_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRAVIA_DEBUG: %w", err)
		}
		c.Log.Debug = b
	}
	if v := getenv("TRAVIA_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TRAVIA_SESSION_TTL: %w", err)
		}
		c.Session.TTL = d
	}
	if v := getenv("TRAVIA_OFFERS_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TRAVIA_OFFERS_SEED: %w", err)
		}
		c.Offers.Seed = n
	}
	return nil
}

// Validate rejects unusable settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Log.Dir == "" {
		errs = append(errs, errors.New("log.dir is required"))
	}
	if c.Knowledge.TopK <= 0 {
		errs = append(errs, fmt.Errorf("knowledge.top_k must be positive, got %d", c.Knowledge.TopK))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL))
	}
	if c.Offers.Sites <= 0 {
		errs = append(errs, fmt.Errorf("offers.sites must be positive, got %d", c.Offers.Sites))
	}
	if c.Entity.Threshold < 0 || c.Entity.Threshold >= 100 {
		errs = append(errs, fmt.Errorf("entity.threshold must be in [0,100), got %d", c.Entity.Threshold))
	}
	if c.Entity.Limit < 2 {
		errs = append(errs, fmt.Errorf("entity.limit must be at least 2, got %d", c.Entity.Limit))
	}
	return errors.Join(errs...)
}
