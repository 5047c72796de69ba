package mylog

import (
	"log/slog"
)

// Err returns a slog attribute for an error value.
func Err(err error) slog.Attr {
	return slog.Any("err", err)
}
