package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Output formats understood by the CLI.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	Env            string `mapstructure:"ENV"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	MaxQueryLength int    `mapstructure:"MAX_QUERY_LENGTH"`
	OutputFormat   string `mapstructure:"OUTPUT_FORMAT"`
}

// Load reads the configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_QUERY_LENGTH", 1000)
	v.SetDefault("OUTPUT_FORMAT", FormatText)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("MAX_QUERY_LENGTH")
	v.BindEnv("OUTPUT_FORMAT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ZerologLevel returns the parsed LOG_LEVEL, falling back to info when the
// value is unknown. Validate reports unknown levels.
func (c *Config) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("LOG_LEVEL %q is not a valid level: %w", c.LogLevel, err)
		}
	}
	if c.MaxQueryLength < 0 {
		return fmt.Errorf("MAX_QUERY_LENGTH must not be negative, got %d", c.MaxQueryLength)
	}
	switch c.OutputFormat {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("OUTPUT_FORMAT must be %q or %q, got %q", FormatText, FormatJSON, c.OutputFormat)
	}
	return nil
}
