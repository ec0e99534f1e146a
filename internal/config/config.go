package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageJSON  = "json"
	StorageRedis = "redis"
)

// Config holds all configuration values
type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"+"`

	DataDir        string `env:"DATA_DIR" envDefault:"bot_data"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"json"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`

	// HTTPPort serves /health, /metrics and /leaderboard; 0 disables it.
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// HTTPAllowOrigins are the CORS origins allowed to read the API; "*" allows any.
	HTTPAllowOrigins []string `env:"HTTP_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	XAIAPIKey          string `env:"XAI_API_KEY"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	CommentaryProvider string `env:"COMMENTARY_PROVIDER" envDefault:"grok"`
}

// LoadConfig loads environment variables from .env file and returns a Config struct
func LoadConfig() (*Config, error) {
	// Try to load .env file (optional - may not exist in production)
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(cfg.StorageBackend)
	cfg.CommentaryProvider = strings.ToLower(cfg.CommentaryProvider)
	return cfg, nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return NewConfigError("DISCORD_TOKEN", "environment variable is required")
	}

	if c.CommandPrefix == "" || strings.ContainsAny(c.CommandPrefix, " \t\n") {
		return NewConfigError("COMMAND_PREFIX", "must be non-empty and contain no whitespace")
	}

	switch c.StorageBackend {
	case StorageJSON:
		if c.DataDir == "" {
			return NewConfigError("DATA_DIR", "cannot be empty")
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return NewConfigError("REDIS_ADDR", "required when STORAGE_BACKEND=redis")
		}
	default:
		return NewConfigError("STORAGE_BACKEND", fmt.Sprintf("unknown backend %q (want json or redis)", c.StorageBackend))
	}

	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return NewConfigError("HTTP_PORT", fmt.Sprintf("invalid port %d", c.HTTPPort))
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return NewConfigError("LOG_FORMAT", "must be json or text")
	}

	if _, err := c.Level(); err != nil {
		return NewConfigError("LOG_LEVEL", err.Error())
	}

	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}
