package workers

import "bds_scrooper/models"

// LogFunc writes a line to the scrape_logs table under source.
type LogFunc func(level models.LogLevel, source, message string)

// NoOpLogger does nothing (default)
var NoOpLogger LogFunc = func(level models.LogLevel, source, message string) {}

// StoreLogger adapts a run recorder's Log method. Lines are not tied to a
// run.
func StoreLogger(log func(runID *int64, level models.LogLevel, message, platform string) error) LogFunc {
	return func(level models.LogLevel, source, message string) {
		_ = log(nil, level, message, source)
	}
}
