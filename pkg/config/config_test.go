package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	assert.Equal(t, BotModePolling, cfg.Bot.Mode)
	assert.Equal(t, 10*time.Second, cfg.Bot.Timeout)
	assert.Equal(t, "en", cfg.Bot.Language)
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 20, cfg.RateLimit.MaxMessagesPerMinute)
	assert.Equal(t, 3*time.Second, cfg.RateLimit.CommandCooldown)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Jobs.QueueEntryTTL)
	assert.Equal(t, "*/5 * * * *", cfg.Jobs.SweepSchedule)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Bot:       BotConfig{Mode: BotModeWebhook, Timeout: time.Minute, Language: "ar"},
		Server:    ServerConfig{Port: ":9090"},
		RateLimit: RateLimitConfig{MaxMessagesPerMinute: 5, Backend: "redis"},
	}
	cfg.applyDefaults()

	assert.Equal(t, BotModeWebhook, cfg.Bot.Mode)
	assert.Equal(t, time.Minute, cfg.Bot.Timeout)
	assert.Equal(t, "ar", cfg.Bot.Language)
	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 5, cfg.RateLimit.MaxMessagesPerMinute)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
}

func TestAdminList(t *testing.T) {
	admins := NewAdminList([]int64{1, 2})

	assert.True(t, admins.Contains(1))
	assert.False(t, admins.Contains(3))
	assert.Equal(t, 2, admins.Len())

	admins.Replace([]int64{3})
	assert.False(t, admins.Contains(1))
	assert.True(t, admins.Contains(3))
	assert.Equal(t, 1, admins.Len())

	admins.Replace(nil)
	assert.Equal(t, 0, admins.Len())
}
