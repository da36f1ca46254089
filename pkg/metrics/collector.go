package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/strangerpair/roulette-bot/internal/domain"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_total",
			Help: "Total number of chat pairs created",
		},
	)
	chatsEndedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chats_ended_total",
			Help: "Total number of chat sessions ended",
		},
	)
	relayedMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relayed_messages_total",
			Help: "Total number of messages relayed between partners",
		},
	)
	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Total number of rejected actions split by kind",
		},
		[]string{"kind"},
	)
	reportsFiledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reports_filed_total",
			Help: "Total number of abuse reports filed",
		},
	)
	broadcastMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_messages_total",
			Help: "Total number of broadcast deliveries labeled by status",
		},
		[]string{"status"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of users waiting for a match",
		},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of active chat pairs",
		},
	)
	totalUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "total_users",
			Help: "Total number of registered users",
		},
	)
	blockedUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blocked_users",
			Help: "Current number of blocked users",
		},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordMatch counts a newly created pair.
func RecordMatch() {
	matchesTotal.Inc()
}

// RecordChatEnded counts a finished session.
func RecordChatEnded() {
	chatsEndedTotal.Inc()
}

// RecordRelayedMessage counts a message forwarded between partners.
func RecordRelayedMessage() {
	relayedMessagesTotal.Inc()
}

// RecordRateLimited counts a throttled action. kind is "message" or "command".
func RecordRateLimited(kind string) {
	if kind == "" {
		kind = "unknown"
	}

	rateLimitedTotal.WithLabelValues(kind).Inc()
}

// RecordReportFiled counts a filed abuse report.
func RecordReportFiled() {
	reportsFiledTotal.Inc()
}

// RecordBroadcast counts one broadcast delivery attempt by status.
func RecordBroadcast(status string) {
	if status == "" {
		status = "unknown"
	}

	broadcastMessagesTotal.WithLabelValues(status).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// SetSnapshot updates all directory gauges from an aggregate snapshot.
func SetSnapshot(s *domain.Stats) {
	if s == nil {
		return
	}

	queueDepth.Set(float64(s.QueueDepth))
	activeSessions.Set(float64(s.ActiveSessions))
	totalUsers.Set(float64(s.TotalUsers))
	blockedUsers.Set(float64(s.BlockedUsers))
}

// StatsSource yields the aggregate snapshot the collector polls.
type StatsSource interface {
	Stats(ctx context.Context) (*domain.Stats, error)
}

// Collector periodically polls directory statistics and emits gauge metrics.
type Collector struct {
	source   StatsSource
	interval time.Duration
}

// NewCollector builds a metrics collector bound to the provided stats source.
func NewCollector(source StatsSource) *Collector {
	return &Collector{source: source, interval: 10 * time.Second}
}

// Run polls the source until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		if stats, err := c.source.Stats(ctx); err == nil {
			SetSnapshot(stats)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}
