package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Services derive their own
// with logger.With("system", ...).
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
