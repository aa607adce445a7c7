package logging

import (
	"log/slog"
)

// CronAdapter lets background schedulers log through slog. It satisfies the
// robfig/cron Logger interface.
type CronAdapter struct {
	logger *slog.Logger
}

// NewCronAdapter wraps logger. If logger is nil, slog.Default() is used.
func NewCronAdapter(logger *slog.Logger) *CronAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronAdapter{logger: logger.With("component", "cron")}
}

// Info logs routine scheduler activity at debug level; cron reports every tick.
func (a *CronAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

// Error logs a scheduler error.
func (a *CronAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append(keysAndValues, KeyError, err)...)
}
