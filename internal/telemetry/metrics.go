// Package telemetry provides logging setup and Prometheus metrics for Hookline.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// served on the side-channel HTTP server started by cmd/server:
//
//	GET http://<host>:<HOOKLINE_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Script generation outcomes and provider latency/errors
//   - Account and script lifecycle counters
//   - Store size gauges and database connection pool gauge (sampled periodically)
package telemetry

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/hookline/hookline/internal/safego"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
//
// The path label holds the Gin route template (e.g. /api/scripts/:id), NOT the
// raw URL, so script ids never become label values.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Generation sources recorded in ScriptGenerationsTotal.
const (
	SourceRemote   = "remote"   // all three sections came from the provider
	SourcePartial  = "partial"  // provider answered, some sections were filled from fallback
	SourceFallback = "fallback" // provider absent or failed
)

// Script generation metrics.
//
// ScriptGenerationsTotal counts every generate call by where its sections came
// from. A rising fallback share usually means the provider key expired or the
// model is cold.
//
// Example PromQL queries:
//   - Fallback ratio:  sum(rate(script_generations_total{source="fallback"}[15m])) / sum(rate(script_generations_total[15m]))
//
// GenerationProviderDuration and GenerationProviderErrorsTotal are labelled by
// provider name ("huggingface", "gemini").
var (
	ScriptGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_generations_total",
			Help: "Total number of script generations, by section source (remote, partial, fallback).",
		},
		[]string{"source"},
	)

	GenerationProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "script_generation_provider_duration_seconds",
			Help:    "Latency of remote generation provider calls, by provider.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"provider"},
	)

	GenerationProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_generation_provider_errors_total",
			Help: "Total number of failed remote generation provider calls, by provider.",
		},
		[]string{"provider"},
	)
)

// Lifecycle counters.
var (
	ScriptsSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scripts_saved_total",
			Help: "Total number of scripts saved by users.",
		},
	)

	ScriptsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scripts_deleted_total",
			Help: "Total number of scripts deleted by their owners.",
		},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Total number of account events, by event (signup, login, login_failed).",
		},
		[]string{"event"},
	)

	RateLimitedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of requests rejected with 429, by scope (auth, generate).",
		},
		[]string{"scope"},
	)
)

// Store gauges, sampled by StartStoreStatsCollector.
var (
	StoreUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_users",
			Help: "Number of registered users in the active store.",
		},
	)

	StoreScripts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_scripts",
			Help: "Number of saved scripts in the active store.",
		},
	)

	StoreCommunityEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_community_entries",
			Help: "Number of community feed entries in the active store.",
		},
	)
)

// DBOpenConnections tracks open connections held by the sql.DB pool when the
// postgres backend is active. Sampled every 30 seconds by StartDBStatsCollector.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StoreCounter is implemented by every store backend.
type StoreCounter interface {
	CountUsers(ctx context.Context) (int, error)
	CountScripts(ctx context.Context) (int, error)
	CountCommunityEntries(ctx context.Context) (int, error)
}

// SampleStore updates the store gauges once.
func SampleStore(ctx context.Context, s StoreCounter) error {
	users, err := s.CountUsers(ctx)
	if err != nil {
		return err
	}
	scripts, err := s.CountScripts(ctx)
	if err != nil {
		return err
	}
	entries, err := s.CountCommunityEntries(ctx)
	if err != nil {
		return err
	}
	StoreUsers.Set(float64(users))
	StoreScripts.Set(float64(scripts))
	StoreCommunityEntries.Set(float64(entries))
	return nil
}

// StartStoreStatsCollector samples the store gauges every interval until ctx
// is cancelled. Sampling errors are logged and the loop keeps going.
func StartStoreStatsCollector(ctx context.Context, s StoreCounter, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	safego.Go("store-stats-collector", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := SampleStore(ctx, s); err != nil && ctx.Err() == nil {
				slog.Warn("store stats collector: sampling failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})
}

// StartDBStatsCollector samples sql.DB pool statistics every 30 seconds and
// updates DBOpenConnections. It stops when ctx is cancelled or the database
// becomes unreachable.
func StartDBStatsCollector(ctx context.Context, db *sql.DB) {
	safego.Go("db-stats-collector", func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if err := db.PingContext(ctx); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	})
}
