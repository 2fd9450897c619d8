package taskgraph

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logging facade used by [Executor] and [Task].
// It is satisfied by *logiface.Logger[*stumpy.Event]; callers supply one
// via [WithLogger], or the package default (stderr, Informational level)
// is used.
type Logger = *logiface.Logger[*stumpy.Event]

var (
	defaultLoggerOnce sync.Once
	defaultLoggerVal  Logger
)

// defaultLogger lazily builds the package-default logger: JSON to stderr
// at Informational level and above, via stumpy (logiface's own reference
// backend).
func defaultLogger() Logger {
	defaultLoggerOnce.Do(func() {
		defaultLoggerVal = stumpy.L.New(
			stumpy.L.WithLevel(logiface.LevelInformational),
			stumpy.L.WithStumpy(),
		)
	})
	return defaultLoggerVal
}

// logTaskEvent emits a Debug-level structured log entry about a task
// lifecycle transition. No-op if logging at Debug is disabled.
func logTaskEvent(log Logger, msg string, taskID string, status Status) {
	if log == nil || log.Level() < logiface.LevelDebug {
		return
	}
	log.Debug().Str("task", taskID).Str("status", status.String()).Log(msg)
}

// logExecutorEvent emits an Informational-level structured log entry about
// executor-level lifecycle events (startup, shutdown phases).
func logExecutorEvent(log Logger, msg string, executorID string) {
	if log == nil || log.Level() < logiface.LevelInformational {
		return
	}
	log.Info().Str("executor", executorID).Log(msg)
}
