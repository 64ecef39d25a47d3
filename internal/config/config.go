// Package config loads txnsight configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Embedding providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// HTTP front ends.
const (
	FrontendHTTP = "http"
	FrontendGin  = "gin"
)

// Config holds all configuration for the ingest and server binaries.
// Values come from an optional YAML file; environment variables override them.
// Secrets (API keys) only come from environment variables.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Data      DataConfig      `yaml:"data"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Anomaly   AnomalyConfig   `yaml:"anomaly"`
	Server    ServerConfig    `yaml:"server"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT" env-default:"false"`
}

// DataConfig locates the input file and the persisted artifacts.
type DataConfig struct {
	RawCSVPath   string `yaml:"raw_csv_path" env:"RAW_CSV_PATH" env-default:"data/transactions.csv"`
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH" env-default:"data/transactions.db"`
	Table        string `yaml:"table" env:"TABLE_NAME" env-default:"transactions"`
	IndexPath    string `yaml:"index_path" env:"INDEX_PATH" env-default:"data/transactions.bolt"`
	// Timezone of input and stored dates, an IANA name or "Local"
	Timezone string `yaml:"timezone" env:"TIMEZONE" env-default:"Local"`
	// WatchDir is scanned for new CSV files by ingest -watch; defaults to the CSV's directory
	WatchDir string        `yaml:"watch_dir" env:"WATCH_DIR" env-default:""`
	Debounce time.Duration `yaml:"watch_debounce" env:"WATCH_DEBOUNCE" env-default:"2s"`
}

// EmbeddingConfig selects and configures the embedding model.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider" env:"EMBEDDING_PROVIDER" env-default:"ollama"`
	Model       string        `yaml:"model" env:"EMBEDDING_MODEL" env-default:""`
	OllamaURL   string        `yaml:"ollama_url" env:"OLLAMA_URL" env-default:"http://localhost:11434"`
	OpenAIURL   string        `yaml:"openai_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	OpenAIKey   string        `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
	Concurrency int           `yaml:"concurrency" env:"EMBEDDING_CONCURRENCY" env-default:"4"`
	Timeout     time.Duration `yaml:"timeout" env:"EMBEDDING_TIMEOUT" env-default:"60s"`
}

// RetrievalConfig controls semantic search.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" env:"TOP_K" env-default:"5"`
}

// AnomalyConfig holds the anomaly workflow parameters.
type AnomalyConfig struct {
	Entity        string  `yaml:"entity" env:"ANOMALY_ENTITY" env-default:"Z Mall"`
	EntityColumn  string  `yaml:"entity_column" env:"ANOMALY_ENTITY_COLUMN" env-default:"mall_name"`
	WindowHours   int     `yaml:"window_hours" env:"ANOMALY_WINDOW_HOURS" env-default:"168"`
	ThresholdPct  float64 `yaml:"threshold_pct" env:"ANOMALY_THRESHOLD_PCT" env-default:"10"`
	StdMultiplier float64 `yaml:"std_multiplier" env:"ANOMALY_STD_MULTIPLIER" env-default:"2.5"`
	FailedStatus  string  `yaml:"failed_status" env:"ANOMALY_FAILED_STATUS" env-default:"Failed"`
}

// ServerConfig configures the HTTP front ends.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"127.0.0.1:8080"`
	Frontend        string        `yaml:"frontend" env:"SERVER_FRONTEND" env-default:"http"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load reads configuration from the YAML file at path, if it exists,
// with environment variable overrides. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	fromFile := false
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fromFile = true
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	if fromFile {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	switch c.Embedding.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderOllama, ProviderOpenAI, c.Embedding.Provider))
	}
	switch c.Server.Frontend {
	case FrontendHTTP, FrontendGin:
	default:
		errs = append(errs, fmt.Errorf("server.frontend must be %q or %q, got %q",
			FrontendHTTP, FrontendGin, c.Server.Frontend))
	}
	switch c.Anomaly.EntityColumn {
	case "mall_name", "branch_name":
	default:
		errs = append(errs, fmt.Errorf("anomaly.entity_column must be mall_name or branch_name, got %q",
			c.Anomaly.EntityColumn))
	}

	if c.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK))
	}
	if c.Anomaly.WindowHours <= 0 {
		errs = append(errs, fmt.Errorf("anomaly.window_hours must be positive, got %d", c.Anomaly.WindowHours))
	}
	if c.Anomaly.ThresholdPct < 0 || c.Anomaly.ThresholdPct > 100 {
		errs = append(errs, fmt.Errorf("anomaly.threshold_pct must be within [0, 100], got %g", c.Anomaly.ThresholdPct))
	}
	if c.Anomaly.StdMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("anomaly.std_multiplier must be positive, got %g", c.Anomaly.StdMultiplier))
	}
	if c.Data.DatabasePath == "" || c.Data.IndexPath == "" {
		errs = append(errs, errors.New("data.database_path and data.index_path are required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Data.Timezone == "" || c.Data.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Data.Timezone)
	if err != nil {
		return nil, fmt.Errorf("data.timezone: %w", err)
	}
	return loc, nil
}
