package rank

import (
	"context"
	"strconv"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/filter"
	"github.com/rushteam/lastcall/model"
	"github.com/rushteam/lastcall/pipeline"
	"github.com/rushteam/lastcall/pkg/geo"
	"github.com/rushteam/lastcall/vector"
)

// 打分阶段写入的特征名。
const (
	FeatureSimilarity     = "similarity"
	FeatureStoreMatch     = "store_match"
	FeatureCategoryMatch  = "category_match"
	FeatureDistanceScore  = "distance_score"
	FeatureKeywordOverlap = "keyword_overlap"
	FeatureBonus          = "bonus"
)

// Weights 是各加分项的权重。
type Weights struct {
	Store    float64
	Category float64
	Distance float64
	Keyword  float64
}

// DefaultWeights 返回默认权重。
func DefaultWeights() Weights {
	return Weights{
		Store:    core.DefaultStoreWeight,
		Category: core.DefaultCategoryWeight,
		Distance: core.DefaultDistanceWeight,
		Keyword:  core.DefaultKeywordWeight,
	}
}

// Model 把权重转换为加法模型：similarity 权重恒为 1。
func (w Weights) Model() *model.AdditiveModel {
	return &model.AdditiveModel{Terms: []model.Term{
		{Feature: FeatureSimilarity, Weight: 1},
		{Feature: FeatureStoreMatch, Weight: w.Store},
		{Feature: FeatureCategoryMatch, Weight: w.Category},
		{Feature: FeatureDistanceScore, Weight: w.Distance},
		{Feature: FeatureKeywordOverlap, Weight: w.Keyword},
	}}
}

// Scorer 计算 total_score = similarity + bonus。
//
//   - similarity = dot(v_C, u)，u 为 rctx.Preference（已单位化），v_C 按上游模型原样存储
//   - 门店/类目加分：候选门店/类目出现在用户任一收藏中
//   - 距离加分：weight / (1 + distance_km)，仅在请求带坐标时计算
//   - 关键词加分：weight * |候选关键词 ∩ 用户关键词|
//
// 偏好为零向量时返回空（与零向量的内积无意义）。输出保持输入顺序，排序交给 rerank。
type Scorer struct {
	Weights Weights

	// Model 为空时使用 Weights.Model()
	Model model.RankModel
}

func (n *Scorer) Name() string        { return "rank.similarity" }
func (n *Scorer) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Scorer) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || rctx.Vectors == nil || vector.IsZero(rctx.Preference) {
		return nil, nil
	}
	m := n.Model
	if m == nil {
		m = n.Weights.Model()
	}
	affinity := rctx.AffinityOrEmpty()

	out := make([]*core.Item, 0, len(items))
	for i, it := range items {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v, ok := rctx.Vectors.VectorOf(it.ID)
		if !ok || it.Attrs == nil {
			continue
		}
		n.signals(rctx, affinity, it, v)

		total, err := m.Predict(it.Features)
		if err != nil {
			return nil, err
		}
		sim := it.Features[FeatureSimilarity]
		it.Score = total
		it.SetFeature(FeatureBonus, total-sim)
		explain(m, it, sim)
		out = append(out, it)
	}
	return out, nil
}

// signals 写入打分所需的原始特征。
func (n *Scorer) signals(rctx *core.RecommendContext, a *core.Affinity, it *core.Item, v []float32) {
	it.SetFeature(FeatureSimilarity, vector.Dot(v, rctx.Preference))
	it.SetFeature(FeatureStoreMatch, boolFeature(a.HasStore(it.Attrs.StoreID)))
	it.SetFeature(FeatureCategoryMatch, boolFeature(a.HasCategory(it.Attrs.CategoryID)))
	if d, ok := filter.DistanceKm(rctx, it); ok {
		it.SetFeature(FeatureDistanceScore, geo.DistanceScore(d))
	} else {
		it.SetFeature(FeatureDistanceScore, 0)
	}
	it.SetFeature(FeatureKeywordOverlap, float64(a.KeywordOverlap(it.Attrs.Keywords)))
}

// explain 写入可解释 Label：相似度与各项非零加分。
func explain(m model.RankModel, it *core.Item, sim float64) {
	it.PutLabel("rank_model", core.Label{Value: m.Name(), Source: "rank"})
	it.PutLabel("similarity", core.Label{Value: formatScore(sim), Source: "rank"})
	if am, ok := m.(*model.AdditiveModel); ok {
		for _, f := range []string{FeatureStoreMatch, FeatureCategoryMatch, FeatureDistanceScore, FeatureKeywordOverlap} {
			if c := am.Contribution(f, it.Features); c != 0 {
				it.PutLabel("bonus."+f, core.Label{Value: formatScore(c), Source: "rank"})
			}
		}
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
