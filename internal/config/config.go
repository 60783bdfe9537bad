package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port      string `mapstructure:"PORT"`
	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	InputDir  string `mapstructure:"INPUT_DIR"`
	OutputDir string `mapstructure:"OUTPUT_DIR"`

	// DatabaseURL is only required by the load command and the
	// store-backed health check; the converter itself never touches it.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	FHIRBaseURL string `mapstructure:"FHIR_BASE_URL"`

	// JWTSecret enables bearer-token auth on the HTTP API when set.
	JWTSecret string `mapstructure:"JWT_SECRET"`

	Workers   int    `mapstructure:"WORKERS"`
	BodyLimit string `mapstructure:"BODY_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("INPUT_DIR", ".")
	v.SetDefault("OUTPUT_DIR", "out")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("WORKERS", 4)
	v.SetDefault("BODY_LIMIT", "8M")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("INPUT_DIR")
	v.BindEnv("OUTPUT_DIR")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("FHIR_BASE_URL")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("WORKERS")
	v.BindEnv("BODY_LIMIT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the tool is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is runnable. The database and
// FHIR endpoints stay optional because most commands never use them;
// commands that do check for them at invocation time.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.DBMaxConns < c.DBMinConns {
		return fmt.Errorf("DB_MAX_CONNS (%d) must not be below DB_MIN_CONNS (%d)", c.DBMaxConns, c.DBMinConns)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.LogLevel)
	}
	return nil
}
