// Package logging provides the leveled logger used across the media
// processor.
//
// Levels, lowest first:
//   - DEBUG: per-stage decode and inference details
//   - INFO: ingestion summaries and configuration
//   - WARN: degraded stages (missing thumbnail, unknown classification)
//   - ERROR: failures of a whole operation
//   - FATAL: startup errors that terminate the process
//
// The initial level comes from DEBUG or LOG_LEVEL; config.LoadConfig may
// override it with SetLevel.
package logging
