package filter

import (
	"context"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/pkg/geo"
)

// FeatureDistanceKm 是候选到用户的距离（千米），由 GeoFilter 写入，打分阶段复用。
const FeatureDistanceKm = "distance_km"

// GeoFilter 按门店坐标到用户坐标的大圆距离过滤：距离大于半径的候选被移除。
// rctx.Geo 为空时不过滤。全部被过滤时结果为空，不回退到无地理限制的候选。
type GeoFilter struct{}

func (f *GeoFilter) Name() string { return "filter.geo" }

func (f *GeoFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if rctx.Geo == nil || item.Attrs == nil {
		return false, nil
	}
	d := geo.Haversine(rctx.Geo.Lat, rctx.Geo.Lng, item.Attrs.Lat, item.Attrs.Lng)
	item.SetFeature(FeatureDistanceKm, d)
	return d > rctx.Geo.RadiusKm, nil
}

// DistanceKm 返回候选距离：优先读取 GeoFilter 写入的特征，否则现算。
// rctx.Geo 为空时返回 (0, false)。
func DistanceKm(rctx *core.RecommendContext, item *core.Item) (float64, bool) {
	if rctx.Geo == nil || item.Attrs == nil {
		return 0, false
	}
	if d, ok := item.Feature(FeatureDistanceKm); ok {
		return d, true
	}
	d := geo.Haversine(rctx.Geo.Lat, rctx.Geo.Lng, item.Attrs.Lat, item.Attrs.Lng)
	item.SetFeature(FeatureDistanceKm, d)
	return d, true
}
