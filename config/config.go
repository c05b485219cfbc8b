// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without zoneinfo

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort      string        `mapstructure:"SERVER_PORT"`
	DBPath          string        `mapstructure:"DB_PATH"`
	AppEnv          string        `mapstructure:"APP_ENV"`
	Timezone        string        `mapstructure:"TIMEZONE"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	LockTTL         time.Duration `mapstructure:"LOCK_TTL"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	SubmitRateLimit int           `mapstructure:"SUBMIT_RATE_LIMIT"`
	SeedDemo        bool          `mapstructure:"SEED_DEMO"`
}

// Load reads configuration from environment variables over defaults.
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (config Config, err error) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_PATH", "leave.db")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("TIMEZONE", "America/Mexico_City") // wall clock for lead-time rules
	v.SetDefault("REDIS_ADDR", "")                  // empty: in-process locks
	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("CORS_ORIGINS", []string{"*"})
	v.SetDefault("SUBMIT_RATE_LIMIT", 30)
	v.SetDefault("SEED_DEMO", false)

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	if config.SubmitRateLimit <= 0 {
		return config, fmt.Errorf("SUBMIT_RATE_LIMIT must be positive, got %d", config.SubmitRateLimit)
	}
	if _, err = config.Location(); err != nil {
		return config, err
	}
	return config, nil
}

// IsLocalDev switches logging to the console writer.
func (c Config) IsLocalDev() bool {
	env := strings.ToLower(c.AppEnv)
	return env == "development" || env == "local" || env == "dev"
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
