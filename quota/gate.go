package quota

import (
	"context"
)

// Gate authorizes automatic saves against a tier limit. It is a pure
// read check; incrementing usage belongs to the billing subsystem once
// the write actually commits.
type Gate interface {
	Authorize(ctx context.Context, project string, sizeDelta int64) (bool, error)
}

// NoopGate authorizes everything; the default on the unlimited tier.
type NoopGate struct{}

var _ Gate = (*NoopGate)(nil)

func (NoopGate) Authorize(context.Context, string, int64) (bool, error) {
	return true, nil
}

// TierGate denies saves once a project's record count reaches the
// tier's cap.
type TierGate struct {
	usage UsageReader
	limit int64
}

var _ Gate = (*TierGate)(nil)

func NewTierGate(usage UsageReader, limit int64) *TierGate {
	return &TierGate{
		usage: usage,
		limit: limit,
	}
}

func (g *TierGate) Authorize(ctx context.Context, project string, _ int64) (bool, error) {
	used, err := g.usage.Used(ctx, project)
	if err != nil {
		return false, err
	}
	return used < g.limit, nil
}
