package config

import "time"

// Config holds the full runtime configuration for the roulette bot.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Log       LogConfig       `mapstructure:"log"`
}

// BotConfig configures the Telegram transport and the admin allow-list.
type BotConfig struct {
	Token    string        `mapstructure:"token" validate:"required"`
	Mode     string        `mapstructure:"mode" validate:"omitempty,oneof=polling webhook"`
	Timeout  time.Duration `mapstructure:"timeout"`
	AdminIDs []int64       `mapstructure:"admin_ids"`
	Language string        `mapstructure:"language"`
}

// ServerConfig configures the auxiliary HTTP server (metrics, health,
// webhook listener when the bot runs in webhook mode).
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// RateLimitConfig controls the anti-spam throttles.
type RateLimitConfig struct {
	MaxMessagesPerMinute int           `mapstructure:"max_messages_per_minute"`
	CommandCooldown      time.Duration `mapstructure:"command_cooldown"`
	Backend              string        `mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
	Whitelist            []int64       `mapstructure:"whitelist"`
}

// JobsConfig controls background maintenance scheduling.
type JobsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	QueueEntryTTL time.Duration `mapstructure:"queue_entry_ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Bot transport modes.
const (
	BotModePolling = "polling"
	BotModeWebhook = "webhook"
)

const (
	defaultMaxMessagesPerMinute = 20
	defaultCommandCooldown      = 3 * time.Second
	defaultQueueEntryTTL        = 15 * time.Minute
	defaultSweepSchedule        = "*/5 * * * *"
	defaultShutdownTimeout      = 15 * time.Second
	defaultPollTimeout          = 10 * time.Second
)

func (c *Config) applyDefaults() {
	if c.Bot.Mode == "" {
		c.Bot.Mode = BotModePolling
	}
	if c.Bot.Timeout <= 0 {
		c.Bot.Timeout = defaultPollTimeout
	}
	if c.Bot.Language == "" {
		c.Bot.Language = "en"
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RateLimit.MaxMessagesPerMinute <= 0 {
		c.RateLimit.MaxMessagesPerMinute = defaultMaxMessagesPerMinute
	}
	if c.RateLimit.CommandCooldown <= 0 {
		c.RateLimit.CommandCooldown = defaultCommandCooldown
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = "memory"
	}
	if c.Jobs.QueueEntryTTL <= 0 {
		c.Jobs.QueueEntryTTL = defaultQueueEntryTTL
	}
	if c.Jobs.SweepSchedule == "" {
		c.Jobs.SweepSchedule = defaultSweepSchedule
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
