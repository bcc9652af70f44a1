// Package middleware provides the HTTP middleware of the serve command.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics
//   - Configurable filtering for artifact files and health checks
package middleware
