package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics
var (
	IngestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_ingestions_total",
			Help: "Total number of ingestion calls by media kind and outcome",
		},
		[]string{"kind", "status"},
	)

	IngestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_processor_ingestion_duration_seconds",
			Help:    "End-to-end ingestion duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	IngestionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_processor_ingestions_in_flight",
			Help: "Number of ingestion calls currently running",
		},
	)

	StageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_stage_total",
			Help: "Pipeline stage outcomes (success, skipped, failed, panic)",
		},
		[]string{"stage", "status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_processor_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"type", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_processor_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_processor_thumbnail_cache_hits_total",
			Help: "Thumbnails returned because the target file already existed",
		},
	)

	ThumbnailImageDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_thumbnail_image_decode_by_format_total",
			Help: "Image decodes for thumbnails by sniffed container format",
		},
		[]string{"format"},
	)
)

// Classification metrics
var (
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_classifications_total",
			Help: "Classification results by backend and outcome (labeled, unknown, error)",
		},
		[]string{"backend", "outcome"},
	)

	ClassificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_processor_classification_duration_seconds",
			Help:    "Classification duration in seconds, model load included",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend"},
	)

	ClassificationLabels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_classification_labels_total",
			Help: "Winning labels by backend",
		},
		[]string{"backend", "label"},
	)

	ModelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_model_loads_total",
			Help: "Lazy model loads by backend and status",
		},
		[]string{"backend", "status"},
	)

	ModelLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_processor_model_load_duration_seconds",
			Help:    "Model load duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"backend"},
	)
)

// Archive metrics
var (
	ArchiveCopiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_archive_copies_total",
			Help: "Processed copies created by status",
		},
		[]string{"status"},
	)

	ArchiveCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_processor_archive_collisions_total",
			Help: "Canonical names already taken that forced a numeric suffix",
		},
	)

	ArchiveRemovedCopies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_processor_archive_removed_copies_total",
			Help: "Previous processed copies removed by the replace policy",
		},
	)
)

// Provisioning metrics
var (
	ProvisionArtifactsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_provision_artifacts_total",
			Help: "Model artifacts handled by provisioning (downloaded, skipped, failed)",
		},
		[]string{"status"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_processor_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_processor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_processor_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_processor_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the Go memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_processor_memory_paused",
			Help: "1 while batch ingestion is paused for memory pressure",
		},
	)

	MemoryPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_processor_memory_pauses_total",
			Help: "Number of times batch ingestion paused for memory pressure",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_processor_app_info",
			Help: "Application information",
		},
		[]string{"version", "backend"},
	)
)
