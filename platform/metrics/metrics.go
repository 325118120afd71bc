// Package metrics holds the Prometheus collectors shared across modules.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CRMImportRecordsTotal counts mapped and rejected CRM records.
	CRMImportRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "areabutler",
			Name:      "crm_import_records_total",
			Help:      "CRM records processed by vendor and result (imported, failed).",
		},
		[]string{"vendor", "result"},
	)

	// SnapshotExportsTotal counts rendered snapshot exports.
	SnapshotExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "areabutler",
			Name:      "snapshot_exports_total",
			Help:      "Snapshot exports rendered by format.",
		},
		[]string{"format"},
	)

	// EntityGroupDerivationsTotal counts entity group derivations.
	EntityGroupDerivationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "areabutler",
			Name:      "entity_group_derivations_total",
			Help:      "Entity group derivations performed.",
		},
	)

	// UpstreamCircuitState reports circuit breaker state (0 closed, 1 half-open, 2 open).
	UpstreamCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "areabutler",
			Name:      "upstream_circuit_state",
			Help:      "Circuit breaker state per upstream.",
		},
		[]string{"name"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "areabutler",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// GinMiddleware records request latency labelled by the matched route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
