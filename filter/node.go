package filter

import (
	"context"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉；过滤后保持原有顺序。
type FilterNode struct {
	Filters []Filter

	// FailClosed 为 true 时过滤器出错即过滤该物品，否则忽略该过滤器继续判断
	FailClosed bool
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if reason := n.check(ctx, rctx, item); reason != "" {
			item.PutLabel("filtered", core.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// check 返回命中的过滤器名称，未命中返回空串。
func (n *FilterNode) check(ctx context.Context, rctx *core.RecommendContext, item *core.Item) string {
	for _, f := range n.Filters {
		ok, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			if n.FailClosed {
				return f.Name()
			}
			continue
		}
		if ok {
			return f.Name()
		}
	}
	return ""
}
