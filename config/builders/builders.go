// Package builders 注册内置 Node 的配置构建逻辑，import _ 即可生效。
package builders

import (
	"fmt"

	"github.com/rushteam/lastcall/config"
	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/filter"
	"github.com/rushteam/lastcall/model"
	"github.com/rushteam/lastcall/pipeline"
	"github.com/rushteam/lastcall/pkg/conv"
	"github.com/rushteam/lastcall/rank"
	"github.com/rushteam/lastcall/recall"
	"github.com/rushteam/lastcall/rerank"
)

func init() {
	config.Register("recall.catalog", BuildCatalogNode)
	config.Register("filter", BuildFilterNode)
	config.Register("filter.geo", singleFilter("geo"))
	config.Register("filter.affinity", singleFilter("affinity"))
	config.Register("filter.liked", singleFilter("liked"))
	config.Register("filter.rule", singleFilter("rule"))
	config.Register("rank.similarity", BuildScorerNode)
	config.Register("rerank.threshold", BuildThresholdNode)
	config.Register("rerank.sort", BuildSortNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.ranker", BuildRankerNode)
}

func BuildCatalogNode(_ map[string]interface{}) (pipeline.Node, error) {
	// 目录由请求开始时预取到 rctx.Candidates
	return &recall.CatalogSource{}, nil
}

// BuildFilterNode 构建组合过滤节点：
//
//	type: filter
//	config:
//	  fail_closed: true
//	  filters:
//	    - type: geo
//	    - type: affinity
//	      mode: same_category
//	    - type: rule
//	      expr: item.discount_rate >= 30.0
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		f, err := buildFilter(conv.ConfigGet(filterMap, "type", ""), filterMap)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{
		Filters:    filters,
		FailClosed: conv.ConfigGet(cfg, "fail_closed", true),
	}, nil
}

func singleFilter(filterType string) config.NodeBuilder {
	return func(cfg map[string]interface{}) (pipeline.Node, error) {
		f, err := buildFilter(filterType, cfg)
		if err != nil {
			return nil, err
		}
		return &filter.FilterNode{
			Filters:    []filter.Filter{f},
			FailClosed: conv.ConfigGet(cfg, "fail_closed", true),
		}, nil
	}
}

func buildFilter(filterType string, cfg map[string]interface{}) (filter.Filter, error) {
	switch filterType {
	case "geo":
		return &filter.GeoFilter{}, nil
	case "affinity":
		mode, err := filter.ParseAffinityMode(conv.ConfigGet(cfg, "mode", ""))
		if err != nil {
			return nil, err
		}
		return &filter.AffinityFilter{Mode: mode}, nil
	case "liked":
		return &filter.LikedFilter{}, nil
	case "rule":
		expr := conv.ConfigGet(cfg, "expr", "")
		if expr == "" {
			return nil, fmt.Errorf("rule filter: expr not found")
		}
		f, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown filter type: %s", filterType)
	}
}

// BuildScorerNode 构建打分节点。model_path 指向 JSON 加法模型时优先使用，否则按 weights 构建：
//
//	type: rank.similarity
//	config:
//	  weights: {store: 0.1, category: 0.5, distance: 0.3, keyword: 0.1}
func BuildScorerNode(cfg map[string]interface{}) (pipeline.Node, error) {
	weights := rank.DefaultWeights()
	if wm, ok := cfg["weights"].(map[string]interface{}); ok {
		weights.Store = conv.ConfigGetFloat64(wm, "store", weights.Store)
		weights.Category = conv.ConfigGetFloat64(wm, "category", weights.Category)
		weights.Distance = conv.ConfigGetFloat64(wm, "distance", weights.Distance)
		weights.Keyword = conv.ConfigGetFloat64(wm, "keyword", weights.Keyword)
	}
	node := &rank.Scorer{Weights: weights}
	if path := conv.ConfigGet(cfg, "model_path", ""); path != "" {
		m, err := model.LoadAdditiveModel(path)
		if err != nil {
			return nil, err
		}
		node.Model = m
	}
	return node, nil
}

func BuildThresholdNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.ThresholdNode{
		Threshold: conv.ConfigGetFloat64(cfg, "threshold", core.DefaultSimilarityThreshold),
	}, nil
}

func BuildSortNode(_ map[string]interface{}) (pipeline.Node, error) {
	return &rerank.SortNode{}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", core.DefaultLimit))}, nil
}

func BuildRankerNode(cfg map[string]interface{}) (pipeline.Node, error) {
	limit := conv.ConfigGetInt64(cfg, "limit", core.DefaultLimit)
	if limit <= 0 {
		return nil, fmt.Errorf("ranker: limit must be positive, got %d", limit)
	}
	return &rerank.Ranker{
		Threshold: conv.ConfigGetFloat64(cfg, "threshold", core.DefaultSimilarityThreshold),
		Limit:     int(limit),
	}, nil
}
