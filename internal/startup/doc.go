// Package startup logs the processor's lifecycle: the serve banner, the
// registered HTTP routes, model readiness and the graceful shutdown steps.
//
// Configuration itself lives in [media-processor/internal/config]; this
// package only reports on what was loaded.
package startup
