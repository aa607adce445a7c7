// Package logging provides structured logging helpers for meetwise.
//
// All logging goes through log/slog. This package holds the handler setup used
// by the CLI, attribute helpers with consistent key names, and PII helpers:
// calendar owners are logged as a stable hash so log lines can be correlated
// without exposing addresses.
//
//	logger := logging.WithOperation(slog.Default(), "scheduling.find_slots")
//	logger.Info("slot search finished", logging.Owner(email), logging.Status(logging.StatusSuccess))
package logging
