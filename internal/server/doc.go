// Package server exposes the processor over HTTP: health probes, build
// information, Prometheus metrics and the thumbnail and processed
// directories as read-only file servers. Upload and record routes belong to
// the application embedding the processor.
package server
