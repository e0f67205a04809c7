package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code",
	}, []string{"method", "route", "status_code"})

	httpLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "socialnet_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_media_uploads_total",
		Help: "Image ingests by kind and result",
	}, []string{"kind", "result"})

	MediaCleanup = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_media_cleanup_total",
		Help: "Orphaned media deletions by result",
	}, []string{"result"})

	RemoteFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "socialnet_remote_image_fetch_seconds",
			Help:    "Histogram of remote image download latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"status_code"},
	)

	GraphChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_graph_changes_total",
		Help: "Applied follow graph mutations by operation",
	}, []string{"op"})
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)
