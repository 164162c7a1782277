// Package telemetry exposes Prometheus collectors for the harvester.
package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal      *prometheus.CounterVec
	requestRetries     prometheus.Counter
	pacerWaitSeconds   prometheus.Histogram
	documentsTotal     *prometheus.CounterVec
	tenderOutcomeTotal *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		requestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_requests_total",
				Help: "Total number of outbound API requests, labeled by method and status code.",
			},
			[]string{"method", "code"},
		)

		requestRetries = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_request_retries_total",
				Help: "Total number of retried outbound requests.",
			},
		)

		pacerWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvester_pacer_wait_seconds",
				Help:    "Histogram of delays introduced by the request pacer.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		)

		documentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_documents_total",
				Help: "Total number of attachment downloads, labeled by result.",
			},
			[]string{"result"},
		)

		tenderOutcomeTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_tenders_total",
				Help: "Total number of tender outcomes, labeled by status.",
			},
			[]string{"status"},
		)
	})
}

// ObserveRequest records one outbound request.
func ObserveRequest(method string, statusCode int) {
	if requestsTotal == nil {
		return
	}
	requestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// ObserveRetry records one retried request.
func ObserveRetry() {
	if requestRetries == nil {
		return
	}
	requestRetries.Inc()
}

// ObservePacerWait records a delay introduced by the rate limiter.
func ObservePacerWait(d time.Duration) {
	if pacerWaitSeconds == nil {
		return
	}
	pacerWaitSeconds.Observe(d.Seconds())
}

// ObserveDocument records an attachment download result
// (downloaded, skipped or failed).
func ObserveDocument(result string) {
	if documentsTotal == nil {
		return
	}
	documentsTotal.WithLabelValues(result).Inc()
}

// ObserveTenderOutcome records the final status of one tender.
func ObserveTenderOutcome(status string) {
	if tenderOutcomeTotal == nil {
		return
	}
	tenderOutcomeTotal.WithLabelValues(status).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
