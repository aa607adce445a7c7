// Package server holds the MCP server context and the HTTP plumbing around it.
//
// ServerContext carries the calendar client, the scheduling service and the
// instrumentation that tool handlers need. HTTPServer exposes the MCP
// streamable HTTP endpoint behind a static bearer token, together with
// liveness and readiness probes. MetricsServer serves Prometheus metrics on a
// separate port.
package server
