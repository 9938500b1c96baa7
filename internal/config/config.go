package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	RedisURL             string `env:"REDIS_URL"`
	DatabaseURL          string `env:"DATABASE_URL"`
	WordsFile            string `env:"WORDS_FILE" envDefault:"words.txt"`
	RoomTTLHours         int    `env:"ROOM_TTL_HOURS" envDefault:"12"`
	LocalGameIdleMinutes int    `env:"LOCAL_GAME_IDLE_MINUTES" envDefault:"60"`
	PublicBaseURL        string `env:"PUBLIC_BASE_URL" envDefault:""`
	StaticDir            string `env:"STATIC_DIR" envDefault:"static"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) RoomTTL() time.Duration {
	return time.Duration(c.RoomTTLHours) * time.Hour
}

func (c *Config) LocalGameIdle() time.Duration {
	return time.Duration(c.LocalGameIdleMinutes) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// RemoteEnabled reports whether a shared session store was configured at all.
func (c *Config) RemoteEnabled() bool {
	return c.RedisURL != ""
}

func (c *Config) Validate(isProduction bool) error {
	if c.RoomTTLHours <= 0 {
		return fmt.Errorf("ROOM_TTL_HOURS must be positive, got %d", c.RoomTTLHours)
	}
	if c.LocalGameIdleMinutes <= 0 {
		return fmt.Errorf("LOCAL_GAME_IDLE_MINUTES must be positive, got %d", c.LocalGameIdleMinutes)
	}
	if c.PublicBaseURL != "" &&
		!strings.HasPrefix(c.PublicBaseURL, "http://") &&
		!strings.HasPrefix(c.PublicBaseURL, "https://") {
		return fmt.Errorf("PUBLIC_BASE_URL must start with http:// or https://")
	}

	if isProduction {
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: remote rooms are disabled")
		} else if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.DatabaseURL == "" {
			log.Warn().Str("file", c.WordsFile).Msg("DATABASE_URL is empty in production: custom words go to a local file")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
