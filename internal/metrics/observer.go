package metrics

import "media-processor/internal/filesystem"

// NewFilesystemObserver returns an observer feeding the filesystem operation
// duration and error vectors.
func NewFilesystemObserver() filesystem.Observer {
	return filesystem.ObserverFunc(func(volume, operation string, seconds float64, err error) {
		FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(seconds)
		if err != nil {
			FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
		}
	})
}
