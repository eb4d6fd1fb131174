// Package metrics exposes Prometheus collectors for the scanner service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Site outcome labels recorded by ObserveSite.
const (
	OutcomeOK            = "ok"
	OutcomeInvalidURL    = "invalid_url"
	OutcomeRobotsBlocked = "robots_blocked"
	OutcomeEmpty         = "empty"
	OutcomeError         = "error"
)

var (
	sitesScannedTotal          *prometheus.CounterVec
	scanJobsTotal              *prometheus.CounterVec
	licenseTypesTotal          *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	activeScanWorkers          prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		sitesScannedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_sites_total",
				Help: "Total number of sites scanned, labeled by host and outcome.",
			},
			[]string{"site", "outcome"},
		)

		scanJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_jobs_total",
				Help: "Total number of scan jobs processed, labeled by status.",
			},
			[]string{"status"},
		)

		licenseTypesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_license_types_total",
				Help: "Total number of classified licenses, labeled by license type.",
			},
			[]string{"license_type"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		activeScanWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scanner_active_workers",
				Help: "Number of workers currently processing a scan job.",
			},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSite increments the per-site scan counter.
func ObserveSite(site string, outcome string) {
	sitesScannedTotal.WithLabelValues(SanitizeSite(site), outcome).Inc()
}

// ObserveJob increments the job counter for the given status.
func ObserveJob(status string) {
	scanJobsTotal.WithLabelValues(status).Inc()
}

// ObserveLicenseType increments the classified-license counter.
func ObserveLicenseType(licenseType string) {
	if licenseType == "" {
		return
	}
	licenseTypesTotal.WithLabelValues(licenseType).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeScanWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeScanWorkers.Dec()
}
