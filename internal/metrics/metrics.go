// Package metrics provides Prometheus metrics for the explorer's outbound traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	downloadsTotal  *prometheus.CounterVec
	downloadBytes   prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docexplorer_http_requests_total",
				Help: "Total number of requests sent to the document service",
			},
			[]string{"endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docexplorer_http_request_duration_seconds",
				Help:    "Document service request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		downloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docexplorer_downloads_total",
				Help: "Total number of file downloads",
			},
			[]string{"result"},
		),
		downloadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docexplorer_download_bytes_total",
				Help: "Total bytes written by downloads",
			},
		),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.downloadsTotal, m.downloadBytes)
	return m
}

// RecordRequest records one request. status 0 means the request never completed.
// A nil receiver is a no-op.
func (m *Metrics) RecordRequest(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(endpoint, label).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordDownload records a finished download.
func (m *Metrics) RecordDownload(ok bool, bytes int64) {
	if m == nil {
		return
	}
	if !ok {
		m.downloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.downloadsTotal.WithLabelValues("success").Inc()
	m.downloadBytes.Add(float64(bytes))
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
