package jsonrpc

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
)

// newRecoveryHandler turns handler panics into HTTP 500s, logging the
// stack through the service logger.
func newRecoveryHandler(logger *slog.Logger) func(http.Handler) http.Handler {
	recoveryLogger := slog.NewLogLogger(logger.Handler(), slog.LevelError)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger),
		handlers.PrintRecoveryStack(true),
	)
}
