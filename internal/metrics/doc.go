// Package metrics declares the Prometheus metrics of the media processor.
//
// All vectors are registered on the default registry through promauto and are
// exported by the serve command at /metrics. Metric names share the
// media_processor_ prefix:
//
//   - ingestion: calls, duration, in-flight, per-stage outcomes
//   - thumbnails: generations by type/status, cache hits, decode formats
//   - classification: results by backend/outcome, labels, model loads
//   - archive: copies, collisions, removals by the replace policy
//   - provisioning: artifacts downloaded or skipped
//   - filesystem: operation duration and errors per volume
//   - http: requests, duration and in-flight for the serve command
//
// The filesystem package cannot import this package, so NewFilesystemObserver
// adapts the filesystem metrics to filesystem.Observer.
package metrics
