// Package config loads runtime settings from defaults, an optional YAML file,
// a .env file, XOSO_* environment variables and command-line overrides, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// Embedded zone data so Asia/Ho_Chi_Minh resolves on hosts without tzdata.
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/xoso-draws/internal/export"
	"github.com/pfrederiksen/xoso-draws/internal/logger"
	"github.com/pfrederiksen/xoso-draws/internal/region"
	"github.com/pfrederiksen/xoso-draws/internal/scraper"
)

// EnvPrefix prefixes every environment variable, e.g. XOSO_DATA_DIR.
const EnvPrefix = "XOSO"

// Config is the full runtime configuration.
type Config struct {
	DataDir   string        `mapstructure:"data_dir" validate:"required"`
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	UserAgent string        `mapstructure:"user_agent" validate:"required"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Timezone  string        `mapstructure:"timezone" validate:"required"`
	Regions   []string      `mapstructure:"regions"`
	Retry     RetryConfig   `mapstructure:"retry"`
	Log       LogConfig     `mapstructure:"log"`
	Export    ExportConfig  `mapstructure:"export"`
	Server    ServerConfig  `mapstructure:"server"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	InitialInterval time.Duration `mapstructure:"initial_interval" validate:"gte=0"`
	MaxInterval     time.Duration `mapstructure:"max_interval" validate:"gtefield=InitialInterval"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
}

type ExportConfig struct {
	Formats []string `mapstructure:"formats"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "~/.local/share/xoso-draws")
	v.SetDefault("base_url", scraper.DefaultBaseURL)
	v.SetDefault("user_agent", scraper.UserAgent)
	v.SetDefault("timeout", scraper.Timeout)
	v.SetDefault("timezone", region.Timezone)
	v.SetDefault("regions", []string{"MB", "MN", "MT"})
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_interval", 2*time.Second)
	v.SetDefault("retry.max_interval", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("export.formats", []string{"csv", "parquet"})
	v.SetDefault("server.addr", ":8080")
}

// Load reads the configuration. file is an optional YAML path; when empty,
// ./xoso.yaml is used if present. overrides holds values set explicitly on
// the command line, keyed like the config file (e.g. "retry.max_attempts").
func Load(file string, overrides map[string]interface{}) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("xoso")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and that names resolve to known values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := region.Parse(c.Regions); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := export.ParseFormats(c.Export.Formats); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RetryPolicy converts the retry settings for the fetcher.
func (c *Config) RetryPolicy() scraper.RetryPolicy {
	return scraper.RetryPolicy{
		MaxAttempts:     c.Retry.MaxAttempts,
		InitialInterval: c.Retry.InitialInterval,
		MaxInterval:     c.Retry.MaxInterval,
	}
}

// LoggerOptions converts the log settings; Validate guarantees the level parses.
func (c *Config) LoggerOptions() logger.Options {
	level, _ := logger.ParseLevel(c.Log.Level)
	return logger.Options{
		Level:      level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	}
}
