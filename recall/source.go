package recall

import (
	"context"

	"github.com/rushteam/lastcall/core"
)

// Source 表示一个候选来源。
// 候选顺序即后续排序的稳定顺序（同分时先出现者优先）。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
