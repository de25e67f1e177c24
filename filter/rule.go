package filter

import (
	"context"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/pkg/dsl"
)

// RuleFilter 使用 CEL 规则判断候选资格：规则返回 false 的候选被过滤。
// 规则在构建时编译一次（见 dsl.Compile）。
type RuleFilter struct {
	Rule *dsl.Rule
}

// NewRuleFilter 编译表达式并返回过滤器。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	r, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{Rule: r}, nil
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Rule == nil {
		return false, nil
	}
	// 距离类规则依赖 distance_km
	DistanceKm(rctx, item)
	ok, err := f.Rule.Evaluate(item, rctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}
