package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/pipeline"
)

// CatalogSource 从目录生成候选：上架、有库存且存在于向量索引中的物品，保持目录顺序。
//
// 优先使用请求开始时预取到 rctx.Candidates 的物品；未预取且配置了 Catalog 时才查询目录。
// CatalogSource 同时实现 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type CatalogSource struct {
	Catalog core.Catalog
}

func (r *CatalogSource) Name() string        { return "recall.catalog" }
func (r *CatalogSource) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *CatalogSource) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *CatalogSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	items := rctx.Candidates
	if items == nil && r.Catalog != nil {
		var err error
		items, err = r.Catalog.ActiveItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("recall catalog: %w", err)
		}
		rctx.Candidates = items
	}
	if rctx.Vectors == nil {
		return nil, nil
	}

	out := make([]*core.Item, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, ci := range items {
		if !ci.Available() {
			continue
		}
		if _, ok := rctx.Vectors.VectorOf(ci.ID); !ok {
			continue
		}
		if _, dup := seen[ci.ID]; dup {
			continue
		}
		seen[ci.ID] = struct{}{}
		it := core.NewCandidate(ci)
		it.PutLabel("recall_source", core.Label{Value: "catalog", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
