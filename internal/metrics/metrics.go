// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommandsTotal counts executed commands by name and outcome
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openchat_bot_commands_total",
			Help: "Total number of executed bot commands",
		},
		[]string{"command", "status"},
	)

	// NotificationsTotal counts received notifications by canonical event type
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openchat_bot_notifications_total",
			Help: "Total number of received platform notifications",
		},
		[]string{"event"},
	)

	// ModerationFlags counts flagged messages by violation
	ModerationFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openchat_bot_moderation_flags_total",
			Help: "Total number of moderation violations detected",
		},
		[]string{"violation"},
	)

	// PlatformCalls counts outbound platform operations
	PlatformCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openchat_bot_platform_calls_total",
			Help: "Total number of outbound platform calls",
		},
		[]string{"operation", "status"},
	)

	// PlatformCallDuration tracks outbound platform latency
	PlatformCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openchat_bot_platform_call_duration_seconds",
			Help:    "Outbound platform call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Installations tracks the current number of installations
	Installations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "openchat_bot_installations",
			Help: "Number of scopes the bot is installed in",
		},
	)

	// RateLimited counts rejected command invocations
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openchat_bot_rate_limited_total",
			Help: "Total number of command invocations rejected by the rate limiter",
		},
	)
)

// Status labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Status maps an error to a status label.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
