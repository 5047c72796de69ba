package quota

import (
	"context"
)

// UsageReader reports a project's current usage. The counters are
// owned externally; this interface only reads them.
type UsageReader interface {
	Used(ctx context.Context, project string) (int64, error)
}

// UsageReaderFunc adapts a function to UsageReader.
type UsageReaderFunc func(ctx context.Context, project string) (int64, error)

var _ UsageReader = (UsageReaderFunc)(nil)

func (f UsageReaderFunc) Used(ctx context.Context, project string) (int64, error) {
	return f(ctx, project)
}

// StaticUsageReader returns a fixed usage value, useful in tests.
type StaticUsageReader int64

var _ UsageReader = (StaticUsageReader)(0)

func (s StaticUsageReader) Used(context.Context, string) (int64, error) {
	return int64(s), nil
}
