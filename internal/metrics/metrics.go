// Package metrics provides Prometheus metrics for irisboard.
package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for UpstreamRequestsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeHTTP     = "http_error"
	OutcomeNetwork  = "network_error"
	OutcomeDecode   = "decode_error"
	OutcomeThrottle = "throttled"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP server
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// IRIS upstream
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	CacheLookupsTotal       *prometheus.CounterVec

	// Station catalog
	CatalogStations      prometheus.Gauge
	CatalogStatusCodes   prometheus.Gauge
	CatalogLastRefreshed prometheus.Gauge

	// Response cache database
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBWaitSecondsTotal prometheus.Counter

	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool
	cancel           context.CancelFunc
	wg               sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "irisboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "irisboard_http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		UpstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "irisboard_upstream_requests_total",
				Help: "Requests sent to the IRIS API by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		UpstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "irisboard_upstream_request_duration_seconds",
				Help:    "IRIS API latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "irisboard_cache_lookups_total",
				Help: "Response cache lookups by tier and result",
			},
			[]string{"tier", "result"},
		),
		CatalogStations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irisboard_catalog_stations",
			Help: "Number of stations in the catalog",
		}),
		CatalogStatusCodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irisboard_catalog_status_codes",
			Help: "Number of status codes in the catalog",
		}),
		CatalogLastRefreshed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irisboard_catalog_last_refreshed_timestamp_seconds",
			Help: "Unix time of the last successful catalog refresh",
		}),
		DBConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irisboard_cache_db_connections_open",
			Help: "Number of open cache database connections",
		}),
		DBConnectionsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irisboard_cache_db_connections_in_use",
			Help: "Number of cache database connections currently in use",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irisboard_cache_db_connections_idle",
			Help: "Number of idle cache database connections",
		}),
		DBWaitSecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irisboard_cache_db_wait_seconds_total",
			Help: "Total time blocked waiting for a cache database connection",
		}),
		logger: logger,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDuration,
		m.CacheLookupsTotal,
		m.CatalogStations,
		m.CatalogStatusCodes,
		m.CatalogLastRefreshed,
		m.DBConnectionsOpen,
		m.DBConnectionsInUse,
		m.DBConnectionsIdle,
		m.DBWaitSecondsTotal,
	)

	return m
}

// ObserveUpstream records one request to the IRIS API.
func (m *Metrics) ObserveUpstream(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveCache records a response cache lookup.
func (m *Metrics) ObserveCache(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(tier, result).Inc()
}

// ObserveCatalog records the size of a freshly loaded catalog.
func (m *Metrics) ObserveCatalog(stations, statusCodes int, refreshed time.Time) {
	if m == nil {
		return
	}
	m.CatalogStations.Set(float64(stations))
	m.CatalogStatusCodes.Set(float64(statusCodes))
	m.CatalogLastRefreshed.Set(float64(refreshed.Unix()))
}

// StartDBStatsCollector starts a goroutine that periodically copies the
// connection pool statistics of db into the DB gauges.
// Calling it more than once has no effect. Call Shutdown to stop the collector.
func (m *Metrics) StartDBStatsCollector(db *sql.DB, interval time.Duration) {
	if db == nil {
		return
	}

	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	var lastWaitDuration time.Duration

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in DB stats collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := db.Stats()
				m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
				m.DBConnectionsInUse.Set(float64(stats.InUse))
				m.DBConnectionsIdle.Set(float64(stats.Idle))

				waitDelta := stats.WaitDuration - lastWaitDuration
				if waitDelta > 0 {
					m.DBWaitSecondsTotal.Add(waitDelta.Seconds())
				}
				lastWaitDuration = stats.WaitDuration

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the DB stats collector goroutine and waits for it to exit.
// It is safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
