package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Service           string `env:"HOBOSKY_SERVICE" envDefault:"https://bsky.social"`
	SessionFile       string `env:"HOBOSKY_SESSION_FILE"`
	RedisURL          string `env:"HOBOSKY_REDIS_URL"`
	PostgresURL       string `env:"HOBOSKY_POSTGRES_URL"`
	LogLevel          string `env:"HOBOSKY_LOG_LEVEL" envDefault:"info"`
	VideoPollSeconds  int    `env:"HOBOSKY_VIDEO_POLL_SECONDS" envDefault:"1"`
	VideoPollAttempts int    `env:"HOBOSKY_VIDEO_POLL_ATTEMPTS" envDefault:"120"`
}

func (c *Config) VideoPollInterval() time.Duration {
	return time.Duration(c.VideoPollSeconds) * time.Second
}

func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Service, "http://") && !strings.HasPrefix(c.Service, "https://") {
		return fmt.Errorf("HOBOSKY_SERVICE must be an http(s) URL, got %q", c.Service)
	}
	if c.RedisURL != "" && c.PostgresURL != "" {
		return fmt.Errorf("set at most one of HOBOSKY_REDIS_URL and HOBOSKY_POSTGRES_URL")
	}
	if c.VideoPollSeconds <= 0 {
		return fmt.Errorf("HOBOSKY_VIDEO_POLL_SECONDS must be positive")
	}
	if c.VideoPollAttempts <= 0 {
		return fmt.Errorf("HOBOSKY_VIDEO_POLL_ATTEMPTS must be positive")
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
