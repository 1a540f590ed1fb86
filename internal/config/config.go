// Package config loads application configuration from config.yaml and
// GRANTS_-prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Sources  SourcesConfig  `yaml:"sources" mapstructure:"sources"`
	Dedup    DedupConfig    `yaml:"dedup" mapstructure:"dedup"`
	Residual ResidualConfig `yaml:"residual" mapstructure:"residual"`
	Refdata  RefdataConfig  `yaml:"refdata" mapstructure:"refdata"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetchConfig configures source downloads.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// Timeout returns the fetch timeout as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// SourcesConfig holds per-source feed locations. Empty URLs fall back to
// each adapter's default.
type SourcesConfig struct {
	Enabled     []string `yaml:"enabled" mapstructure:"enabled"`
	OpenPhilURL string   `yaml:"openphil_url" mapstructure:"openphil_url"`
	GiveWellURL string   `yaml:"givewell_url" mapstructure:"givewell_url"`
	EAFundsURL  string   `yaml:"eafunds_url" mapstructure:"eafunds_url"`
	SFFURL      string   `yaml:"sff_url" mapstructure:"sff_url"`
	ArchiveURL  string   `yaml:"archive_url" mapstructure:"archive_url"`
}

// DedupConfig is the fuzzy matching policy.
type DedupConfig struct {
	MaxAmountRatio float64 `yaml:"max_amount_ratio" mapstructure:"max_amount_ratio"`
	MaxDateGapDays int     `yaml:"max_date_gap_days" mapstructure:"max_date_gap_days"`
}

// ResidualConfig is the materiality threshold for gap records.
type ResidualConfig struct {
	MinAmount   float64 `yaml:"min_amount" mapstructure:"min_amount"`
	MinFraction float64 `yaml:"min_fraction" mapstructure:"min_fraction"`
}

// RefdataConfig locates the static reference tables.
type RefdataConfig struct {
	PublishedTotalsPath string `yaml:"published_totals_path" mapstructure:"published_totals_path"`
	CategoryHintsPath   string `yaml:"category_hints_path" mapstructure:"category_hints_path"`
}

// ExportConfig configures artifact output.
type ExportConfig struct {
	OutDir string `yaml:"out_dir" mapstructure:"out_dir"`
}

// StoreConfig configures the optional database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the artifact server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GRANTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.user_agent", "grants-cli/1.0 (data pipeline)")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.concurrency", 4)
	v.SetDefault("dedup.max_amount_ratio", 1.10)
	v.SetDefault("dedup.max_date_gap_days", 90)
	v.SetDefault("residual.min_amount", 100000)
	v.SetDefault("residual.min_fraction", 0.05)
	v.SetDefault("refdata.published_totals_path", "refdata/published_totals.yaml")
	v.SetDefault("refdata.category_hints_path", "refdata/category_hints.yaml")
	v.SetDefault("export.out_dir", "dist/data")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "grants.db")
	v.SetDefault("server.port", 8080)

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
