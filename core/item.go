package core

// Item 是推荐链路中的统一承载结构：候选属性、特征、分数、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
// Features 记录打分分解（similarity、各项 bonus、distance_km），便于观测与 CEL 规则。
type Item struct {
	ID       int64
	Score    float64
	Attrs    *CatalogItem
	Features map[string]float64
	Labels   map[string]Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Labels:   make(map[string]Label),
	}
}

// NewCandidate 从目录物品构建候选。
func NewCandidate(ci *CatalogItem) *Item {
	it := NewItem(ci.ID)
	it.Attrs = ci
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// SetFeature 写入单个特征值。
func (it *Item) SetFeature(key string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[key] = v
}

// Feature 读取特征值，不存在时返回 (0, false)。
func (it *Item) Feature(key string) (float64, bool) {
	if it.Features == nil {
		return 0, false
	}
	v, ok := it.Features[key]
	return v, ok
}
