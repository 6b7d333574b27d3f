package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platmaster_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "platmaster_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Extraction metrics
	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platmaster_extractions_total",
			Help: "Total number of document extraction requests",
		},
		[]string{"status"},
	)

	extractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "platmaster_extraction_duration_seconds",
			Help:    "End-to-end document extraction duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		},
	)

	pagesProcessed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "platmaster_pages_processed",
			Help:    "Pages processed per document",
			Buckets: []float64{1, 2, 3, 5, 10, 25, 50},
		},
	)

	pointsExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "platmaster_survey_points_extracted",
			Help:    "Survey points in the merged record per document",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
		},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "platmaster_upload_size_bytes",
			Help: "Size of uploaded files in bytes",
			Buckets: []float64{
				1024, 10 * 1024, 100 * 1024, 1024 * 1024,
				10 * 1024 * 1024, 50 * 1024 * 1024, 100 * 1024 * 1024,
			},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "platmaster_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platmaster_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"},
	)
)
