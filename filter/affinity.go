package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/lastcall/core"
)

// AffinityMode 限定候选必须与用户收藏共享的维度。
type AffinityMode string

const (
	AffinityNone                AffinityMode = ""
	AffinitySameCategory        AffinityMode = "same_category"
	AffinitySameStore           AffinityMode = "same_store"
	AffinitySameCategoryOrStore AffinityMode = "same_category_or_store"
)

// ParseAffinityMode 解析配置中的模式字符串。
func ParseAffinityMode(s string) (AffinityMode, error) {
	switch m := AffinityMode(s); m {
	case AffinityNone, AffinitySameCategory, AffinitySameStore, AffinitySameCategoryOrStore:
		return m, nil
	default:
		return "", fmt.Errorf("unknown affinity mode %q", s)
	}
}

// AffinityFilter 只保留与用户任一收藏同类目/同门店的候选。
// Mode 为空时读取请求参数 core.ParamAffinity（由 variant 决定）。
type AffinityFilter struct {
	Mode AffinityMode
}

func (f *AffinityFilter) Name() string { return "filter.affinity" }

func (f *AffinityFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	mode := f.Mode
	if mode == AffinityNone {
		m, err := ParseAffinityMode(rctx.ParamString(core.ParamAffinity, ""))
		if err != nil {
			return false, err
		}
		mode = m
	}
	if mode == AffinityNone || item.Attrs == nil {
		return false, nil
	}
	a := rctx.AffinityOrEmpty()
	sameCategory := a.HasCategory(item.Attrs.CategoryID)
	sameStore := a.HasStore(item.Attrs.StoreID)
	switch mode {
	case AffinitySameCategory:
		return !sameCategory, nil
	case AffinitySameStore:
		return !sameStore, nil
	case AffinitySameCategoryOrStore:
		return !sameCategory && !sameStore, nil
	}
	return false, nil
}

// LikedFilter 移除用户已收藏的物品。
type LikedFilter struct{}

func (f *LikedFilter) Name() string { return "filter.liked" }

func (f *LikedFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	return rctx.AffinityOrEmpty().HasItem(item.ID), nil
}
