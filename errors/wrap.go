package errors

import (
	"github.com/pkg/errors"
)

// Re-exports from pkg/errors so callers wrap, construct and inspect
// errors through this package alone.
var (
	New       = errors.New
	Errorf    = errors.Errorf
	Wrapf     = errors.Wrapf
	WithStack = errors.WithStack
	Is        = errors.Is
	As        = errors.As
)
