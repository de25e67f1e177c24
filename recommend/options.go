package recommend

import (
	"fmt"
	"time"

	"github.com/rushteam/lastcall/config"
	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/filter"
	"github.com/rushteam/lastcall/pipeline"
	"github.com/rushteam/lastcall/rank"
)

// MaxLimit 单次请求可返回的最大物品数。
const MaxLimit = 100

// Variant 推荐变体，决定候选是否必须与用户收藏共享类目/门店。
type Variant string

const (
	VariantDefault             Variant = "default"
	VariantSameCategory        Variant = "same_category"
	VariantSameStore           Variant = "same_store"
	VariantSameCategoryOrStore Variant = "same_category_or_store"
)

// AffinityMode 返回变体对应的过滤模式。
func (v Variant) AffinityMode() (filter.AffinityMode, error) {
	switch v {
	case "", VariantDefault:
		return filter.AffinityNone, nil
	case VariantSameCategory:
		return filter.AffinitySameCategory, nil
	case VariantSameStore:
		return filter.AffinitySameStore, nil
	case VariantSameCategoryOrStore:
		return filter.AffinitySameCategoryOrStore, nil
	default:
		return "", fmt.Errorf("unknown variant %q", v)
	}
}

// Fallback 个性化结果为空时的策略。
type Fallback string

const (
	FallbackNone   Fallback = "none"
	FallbackRecent Fallback = "recent"
)

// Options 推荐引擎参数，通常从 DefaultOptions 或 OptionsFromSettings 开始修改。
// RecencyWindow、Limit、MaxRadiusKm、Variant、Fallback 为零值时使用默认值。
type Options struct {
	RecencyWindow int
	Threshold     float64
	Limit         int
	Weights       rank.Weights
	TopKeywords   int
	MaxRadiusKm   float64
	Variant       Variant
	Fallback      Fallback
	Budget        time.Duration
	ExcludeLiked  bool
	Rule          string
	PipelineFile  string
}

// DefaultOptions 返回默认参数。
func DefaultOptions() Options {
	return Options{
		RecencyWindow: core.DefaultRecencyWindow,
		Threshold:     core.DefaultSimilarityThreshold,
		Limit:         core.DefaultLimit,
		Weights:       rank.DefaultWeights(),
		TopKeywords:   core.DefaultTopKeywords,
		MaxRadiusKm:   core.DefaultMaxRadiusKm,
		Variant:       VariantDefault,
		Fallback:      FallbackNone,
		Budget:        core.DefaultBudget,
	}
}

// OptionsFromSettings 由配置构建参数。
func OptionsFromSettings(s config.RecommendSettings) Options {
	return Options{
		RecencyWindow: s.RecencyWindow,
		Threshold:     s.SimilarityThreshold,
		Limit:         s.Limit,
		Weights: rank.Weights{
			Store:    s.StoreWeight,
			Category: s.CategoryWeight,
			Distance: s.DistanceWeight,
			Keyword:  s.KeywordWeight,
		},
		TopKeywords:  s.TopKeywords,
		MaxRadiusKm:  s.MaxRadiusKm,
		Variant:      Variant(s.Variant),
		Fallback:     Fallback(s.Fallback),
		Budget:       s.Budget,
		ExcludeLiked: s.ExcludeLiked,
		Rule:         s.Rule,
		PipelineFile: s.PipelineFile,
	}
}

// DefaultPipelineConfig 生成内置 pipeline：
//
//	recall.catalog -> filter(geo, affinity[, liked][, rule]) -> rank.similarity -> rerank.ranker
//
// affinity 过滤的模式与返回数量由请求参数决定。
func DefaultPipelineConfig(o Options) *pipeline.Config {
	filters := []interface{}{
		map[string]interface{}{"type": "geo"},
		map[string]interface{}{"type": "affinity"},
	}
	if o.ExcludeLiked {
		filters = append(filters, map[string]interface{}{"type": "liked"})
	}
	if o.Rule != "" {
		filters = append(filters, map[string]interface{}{"type": "rule", "expr": o.Rule})
	}

	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "default"
	if o.Budget > 0 {
		cfg.Pipeline.Budget = o.Budget.String()
	}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "recall.catalog"},
		{Type: "filter", Config: map[string]interface{}{
			"fail_closed": true,
			"filters":     filters,
		}},
		{Type: "rank.similarity", Config: map[string]interface{}{
			"weights": map[string]interface{}{
				"store":    o.Weights.Store,
				"category": o.Weights.Category,
				"distance": o.Weights.Distance,
				"keyword":  o.Weights.Keyword,
			},
		}},
		{Type: "rerank.ranker", Config: map[string]interface{}{
			"threshold": o.Threshold,
			"limit":     o.Limit,
		}},
	}
	return cfg
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RecencyWindow <= 0 {
		o.RecencyWindow = d.RecencyWindow
	}
	if o.Limit <= 0 {
		o.Limit = d.Limit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.MaxRadiusKm <= 0 {
		o.MaxRadiusKm = d.MaxRadiusKm
	}
	if o.Variant == "" {
		o.Variant = d.Variant
	}
	if o.Fallback == "" {
		o.Fallback = d.Fallback
	}
	return o
}
