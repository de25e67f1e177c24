package core

import (
	"time"

	"github.com/rushteam/lastcall/pkg/conv"
)

// 请求级参数 key（RecommendContext.Params）。
const (
	ParamVariant  = "variant"
	ParamAffinity = "affinity"
	ParamLimit    = "limit"
)

// RecommendContext 承载一次推荐请求的用户/快照/地理信息，贯穿整个 Pipeline 透传。
// 请求开始时一次性填充，节点只读使用（Labels/Params 除外）。
type RecommendContext struct {
	UserID    string
	RequestID string
	Now       time.Time

	// Vectors 是请求开始时获取的向量快照，整个请求内保持不变
	Vectors VectorLookup

	// Likes 是用户收藏快照；Affinity 由 Likes 派生
	Likes    *LikeSnapshot
	Affinity *Affinity

	// Preference 是单位化后的偏好向量；全零表示“无偏好”
	Preference []float64

	// Geo 为空表示不做地理过滤
	Geo *GeoQuery

	// Candidates 是预取的全部上架物品，打分阶段不再访问目录
	Candidates []*CatalogItem

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]Label

	// Params 请求级参数（variant、limit 等）
	Params map[string]any

	// Trace 由 Pipeline 逐个 Node 追加
	Trace []StageTrace
}

// StageTrace 记录单个 Node 的输入输出数量与耗时。
type StageTrace struct {
	Node    string
	Kind    string
	In      int
	Out     int
	Elapsed time.Duration
}

// AffinityOrEmpty 返回亲和度集合，未设置时按 Likes 构建。
func (rctx *RecommendContext) AffinityOrEmpty() *Affinity {
	if rctx.Affinity == nil {
		rctx.Affinity = rctx.Likes.Affinity()
	}
	return rctx.Affinity
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (Label, bool) {
	if rctx.Labels == nil {
		return Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// ParamString 读取字符串参数，未设置时返回 def。
func (rctx *RecommendContext) ParamString(key, def string) string {
	if rctx == nil {
		return def
	}
	return conv.ConfigGet(rctx.Params, key, def)
}

// ParamInt 读取整数参数，未设置时返回 def。
func (rctx *RecommendContext) ParamInt(key string, def int) int {
	if rctx == nil {
		return def
	}
	return int(conv.ConfigGetInt64(rctx.Params, key, int64(def)))
}
