package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	ReportsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_created_total",
			Help: "Reports created, by report type",
		},
		[]string{"type"},
	)

	ReportIDFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "report_id_fallback_total",
			Help: "Report ids that used a random sequence because the daily sequence failed",
		},
	)

	PhotosCompressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photos_compressed_total",
			Help: "Photos decoded and compressed, by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Signed-in sessions currently tracked",
		},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			ReportsCreated,
			ReportIDFallbacks,
			PhotosCompressed,
			ActiveSessions,
		)
	})
}
