package metrics

// InitializeMetrics pre-populates the expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics(backends []string) {
	for _, kind := range []string{"image", "video", "unsupported"} {
		IngestionsTotal.WithLabelValues(kind, "success")
		IngestionsTotal.WithLabelValues(kind, "error")
		IngestionDuration.WithLabelValues(kind)
	}

	for _, stage := range []string{"thumbnail", "metadata", "classify", "archive"} {
		for _, status := range []string{"success", "skipped", "failed", "panic"} {
			StageTotal.WithLabelValues(stage, status)
		}
		StageDuration.WithLabelValues(stage)
	}

	for _, t := range []string{"image", "video"} {
		for _, status := range []string{"success", "error_decode", "error_encode", "error_write"} {
			ThumbnailGenerationsTotal.WithLabelValues(t, status)
		}
		ThumbnailGenerationDuration.WithLabelValues(t)
	}

	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "heif", "unknown"} {
		ThumbnailImageDecodeByFormat.WithLabelValues(format)
	}

	for _, b := range backends {
		for _, outcome := range []string{"labeled", "unknown", "error"} {
			ClassificationsTotal.WithLabelValues(b, outcome)
		}
		ClassificationDuration.WithLabelValues(b)
		ModelLoadsTotal.WithLabelValues(b, "success")
		ModelLoadsTotal.WithLabelValues(b, "error")
		ModelLoadDuration.WithLabelValues(b)
	}

	for _, status := range []string{"success", "error"} {
		ArchiveCopiesTotal.WithLabelValues(status)
	}

	for _, status := range []string{"downloaded", "skipped", "failed"} {
		ProvisionArtifactsTotal.WithLabelValues(status)
	}

	for _, vol := range []string{"uploads", "thumbnails", "processed", "models", "unknown"} {
		for _, op := range []string{"write", "copy", "remove"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
	}
}
