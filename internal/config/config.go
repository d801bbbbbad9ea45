// Package config loads LifeLens configuration from config.yaml and
// LIFELENS_* environment variables, and installs the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Refiner   RefinerConfig   `yaml:"refiner" mapstructure:"refiner"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	Import    ImportConfig    `yaml:"import" mapstructure:"import"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds generative model credentials and settings.
type AnthropicConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	PrimaryModel  string  `yaml:"primary_model" mapstructure:"primary_model"`
	FallbackModel string  `yaml:"fallback_model" mapstructure:"fallback_model"`
	MaxTokens     int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature   float64 `yaml:"temperature" mapstructure:"temperature"`
}

// RefinerConfig configures card refinement.
type RefinerConfig struct {
	Palette       string  `yaml:"palette" mapstructure:"palette"`
	MaxTriggers   int     `yaml:"max_triggers" mapstructure:"max_triggers"`
	MinCards      int     `yaml:"min_cards" mapstructure:"min_cards"`
	MaxCards      int     `yaml:"max_cards" mapstructure:"max_cards"`
	CacheTTLHours int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// RetryConfig holds retry settings for the primary and fallback models.
type RetryConfig struct {
	Primary  RetryPolicy `yaml:"primary" mapstructure:"primary"`
	Fallback RetryPolicy `yaml:"fallback" mapstructure:"fallback"`
}

// RetryPolicy is one model's retry budget.
type RetryPolicy struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the generation circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ImportConfig configures batch assessment of imported files.
type ImportConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LIFELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lifelens.db")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.primary_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.fallback_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("anthropic.temperature", 1.0)
	v.SetDefault("refiner.palette", "soft_pastel")
	v.SetDefault("refiner.max_triggers", 12)
	v.SetDefault("refiner.min_cards", 4)
	v.SetDefault("refiner.max_cards", 6)
	v.SetDefault("refiner.cache_ttl_hours", 24)
	v.SetDefault("refiner.rate_per_sec", 2.0)
	v.SetDefault("retry.primary.max_attempts", 3)
	v.SetDefault("retry.primary.initial_backoff_ms", 600)
	v.SetDefault("retry.primary.max_backoff_ms", 10000)
	v.SetDefault("retry.fallback.max_attempts", 2)
	v.SetDefault("retry.fallback.initial_backoff_ms", 800)
	v.SetDefault("retry.fallback.max_backoff_ms", 10000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("import.concurrency", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required")
	}
	if c.Refiner.MinCards > c.Refiner.MaxCards {
		return eris.Errorf("config: refiner.min_cards (%d) exceeds refiner.max_cards (%d)", c.Refiner.MinCards, c.Refiner.MaxCards)
	}
	if c.Import.Concurrency < 1 {
		return eris.Errorf("config: import.concurrency must be at least 1, got %d", c.Import.Concurrency)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
