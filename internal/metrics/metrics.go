package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Thumbnail metrics
var (
	ThumbnailsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_thumbnails_generated_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"preset", "status"},
	)

	ThumbnailCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail requests answered from the disk cache",
		},
		[]string{"preset"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"preset"},
	)
)

// Media serving metrics
var (
	MediaServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_media_served_total",
			Help: "Total number of media responses by delivery mode and status",
		},
		[]string{"mode", "status"},
	)

	AccessDeniedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_access_denied_total",
			Help: "Total number of photo requests rejected by the permission check",
		},
	)
)

// Scanner metrics
var (
	ScannerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_scanner_runs_total",
			Help: "Total number of gallery scans",
		},
	)

	ScannerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_scanner_last_run_timestamp",
			Help: "Timestamp of the last gallery scan",
		},
	)

	ScannerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_scanner_last_run_duration_seconds",
			Help: "Duration of the last gallery scan in seconds",
		},
	)
)

// Gallery content gauges, refreshed by the Collector.
var (
	AlbumsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_albums_total",
			Help: "Number of albums in the database",
		},
	)

	PhotosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_photos_total",
			Help: "Number of photos in the database",
		},
	)
)

// Auth metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)
)
