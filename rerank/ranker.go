package rerank

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/pipeline"
)

// ThresholdNode 丢弃 Score 低于阈值的物品（Score >= Threshold 保留），保持原有顺序。
type ThresholdNode struct {
	Threshold float64
}

func (n *ThresholdNode) Name() string        { return "rerank.threshold" }
func (n *ThresholdNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *ThresholdNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil || it.Score < n.Threshold {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// SortNode 按 Score 降序稳定排序并去重：同分保持候选原始顺序，重复 ID 只保留排名最高的一个。
type SortNode struct{}

func (n *SortNode) Name() string        { return "rerank.sort" }
func (n *SortNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *SortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	sorted := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			sorted = append(sorted, it)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	out := sorted[:0]
	seen := make(map[int64]struct{}, len(sorted))
	for _, it := range sorted {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out, nil
}

// Ranker 组合阈值过滤、稳定排序去重与 Top-N 截断：
//  1. 丢弃 Score < Threshold 的候选
//  2. 无候选时返回空结果（不回退到其他列表）
//  3. 按 Score 降序稳定排序，返回前 Limit 个不重复的物品
//
// 请求参数 core.ParamLimit（> 0 时）覆盖 Limit。
type Ranker struct {
	Threshold float64
	Limit     int
}

func (n *Ranker) Name() string        { return "rerank.ranker" }
func (n *Ranker) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Ranker) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.Limit
	if l := rctx.ParamInt(core.ParamLimit, 0); l > 0 {
		limit = l
	}
	steps := []pipeline.Node{
		&ThresholdNode{Threshold: n.Threshold},
		&SortNode{},
		&TopNNode{N: limit},
	}
	cur := items
	for _, s := range steps {
		next, err := s.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	for i, it := range cur {
		it.PutLabel("rank_position", core.Label{Value: strconv.Itoa(i + 1), Source: "rerank"})
	}
	return cur, nil
}
