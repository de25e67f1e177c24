package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/pipeline"
)

// Recent 是兜底召回源：返回最近上架的物品（按上架时间倒序）。
// 只在个性化推荐为空且配置了 recent 兜底策略时使用，不参与打分。
// Recent 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用
type Recent struct {
	Catalog core.Catalog
	Limit   int // <= 0 时为 core.DefaultLimit
}

func (r *Recent) Name() string        { return "recall.recent" }
func (r *Recent) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Recent) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Recent) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	limit := r.Limit
	if limit <= 0 {
		limit = core.DefaultLimit
	}
	ids, err := r.Catalog.RecentItems(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recall recent: %w", err)
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", core.Label{Value: "recent", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
