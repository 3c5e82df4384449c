package common

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Export   ExportConfig   `mapstructure:"export"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Log      LogConfig      `mapstructure:"log"`
}

// StoreConfig holds database-related configuration
type StoreConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite | postgres
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
}

// LLMConfig holds model endpoint configuration
type LLMConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Temperature       float32       `mapstructure:"temperature"` // 0 keeps the per-kind default
	MaxTokens         int           `mapstructure:"max_tokens"`  // 0 keeps the per-kind default
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// PipelineConfig sizes the worker pool
type PipelineConfig struct {
	Workers        int           `mapstructure:"workers"`
	QueueSize      int           `mapstructure:"queue_size"`
	ProcessTimeout time.Duration `mapstructure:"process_timeout"`
	LinkPrefix     string        `mapstructure:"link_prefix"` // empty: file:// links
}

// ExportConfig holds the workbook location
type ExportConfig struct {
	Output string `mapstructure:"output"`
}

// WatchConfig holds inbox watcher settings
type WatchConfig struct {
	Roots       []string      `mapstructure:"roots"`
	Debounce    time.Duration `mapstructure:"debounce"`
	InitialScan bool          `mapstructure:"initial_scan"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional config file and RECEIPTS_* environment variables.
// An empty path looks for config.yaml in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("RECEIPTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "receipts.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("store.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("store.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("store.dial_timeout", 3*time.Second)
	v.SetDefault("llm.base_url", "https://api.together.xyz/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "meta-llama/Llama-Vision-Free")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.requests_per_minute", 30)
	v.SetDefault("pipeline.workers", 2)
	v.SetDefault("pipeline.queue_size", 64)
	v.SetDefault("pipeline.process_timeout", 2*time.Minute)
	v.SetDefault("pipeline.link_prefix", "")
	v.SetDefault("export.output", "receipts.xlsx")
	v.SetDefault("watch.roots", []string{"./inbox"})
	v.SetDefault("watch.debounce", 500*time.Millisecond)
	v.SetDefault("watch.initial_scan", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	return NewValidator().
		Field("store.driver", c.Store.Driver, OneOf("sqlite", "postgres")).
		Field("store.dsn", c.Store.DSN, Required).
		Field("pipeline.workers", c.Pipeline.Workers, Positive).
		Field("pipeline.queue_size", c.Pipeline.QueueSize, Positive).
		Field("log.format", c.Log.Format, OneOf("json", "console")).
		Err("CONFIG_ERROR")
}
