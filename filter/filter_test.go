package filter

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/lastcall/core"
)

// 首尔市政厅附近的门店坐标
var (
	cityHall = [2]float64{37.5665, 126.9780}
	near     = [2]float64{37.5700, 126.9820} // ~0.5 km
	far      = [2]float64{37.4563, 126.7052} // 仁川，~27 km
)

func candidate(id, category, store int64, at [2]float64) *core.Item {
	return core.NewCandidate(&core.CatalogItem{
		ID: id, CategoryID: category, StoreID: store,
		Lat: at[0], Lng: at[1], Active: true, Stock: 1,
	})
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGeoFilter(t *testing.T) {
	items := []*core.Item{candidate(1, 1, 1, far), candidate(2, 1, 2, near), candidate(3, 1, 3, cityHall)}
	node := &FilterNode{Filters: []Filter{&GeoFilter{}}}

	tests := []struct {
		name string
		geo  *core.GeoQuery
		want []int64
	}{
		{name: "no geo keeps all", geo: nil, want: []int64{1, 2, 3}},
		{name: "5km radius", geo: &core.GeoQuery{Lat: cityHall[0], Lng: cityHall[1], RadiusKm: 5}, want: []int64{2, 3}},
		{name: "radius excludes everything", geo: &core.GeoQuery{Lat: 35.1796, Lng: 129.0756, RadiusKm: 5}, want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := &core.RecommendContext{Geo: tt.geo}
			out, err := node.Process(context.Background(), rctx, items)
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !equalIDs(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if d, ok := items[2].Feature(FeatureDistanceKm); !ok || math.Abs(d) > 1e-9 {
		t.Errorf("distance_km = %v, %v", d, ok)
	}
}

func TestAffinityFilter(t *testing.T) {
	likes := &core.LikeSnapshot{Likes: []core.Like{{ItemID: 10, CategoryID: 1, StoreID: 100}}}
	items := func() []*core.Item {
		return []*core.Item{
			candidate(1, 1, 200, near), // 同类目
			candidate(2, 2, 100, near), // 同门店
			candidate(3, 3, 300, near), // 无关
			candidate(10, 1, 100, near),
		}
	}

	tests := []struct {
		mode AffinityMode
		want []int64
	}{
		{mode: AffinityNone, want: []int64{1, 2, 3, 10}},
		{mode: AffinitySameCategory, want: []int64{1, 10}},
		{mode: AffinitySameStore, want: []int64{2, 10}},
		{mode: AffinitySameCategoryOrStore, want: []int64{1, 2, 10}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			rctx := &core.RecommendContext{Likes: likes}
			node := &FilterNode{Filters: []Filter{&AffinityFilter{Mode: tt.mode}}}
			out, _ := node.Process(context.Background(), rctx, items())
			if got := ids(out); !equalIDs(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("exclude liked", func(t *testing.T) {
		rctx := &core.RecommendContext{Likes: likes}
		node := &FilterNode{Filters: []Filter{&LikedFilter{}}}
		out, _ := node.Process(context.Background(), rctx, items())
		if got := ids(out); !equalIDs(got, []int64{1, 2, 3}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("mode from request params", func(t *testing.T) {
		rctx := &core.RecommendContext{
			Likes:  likes,
			Params: map[string]any{core.ParamAffinity: string(AffinitySameStore)},
		}
		node := &FilterNode{Filters: []Filter{&AffinityFilter{}}}
		out, _ := node.Process(context.Background(), rctx, items())
		if got := ids(out); !equalIDs(got, []int64{2, 10}) {
			t.Errorf("got %v", got)
		}
	})

	if _, err := ParseAffinityMode("nearby"); err == nil {
		t.Error("ParseAffinityMode should reject unknown modes")
	}
}

func TestRuleFilter(t *testing.T) {
	f, err := NewRuleFilter(`item.discount_rate >= 30.0`)
	if err != nil {
		t.Fatal(err)
	}
	cheap := candidate(1, 1, 1, near)
	cheap.Attrs.DiscountRate = 50
	pricey := candidate(2, 1, 1, near)
	pricey.Attrs.DiscountRate = 10

	node := &FilterNode{Filters: []Filter{f}}
	out, _ := node.Process(context.Background(), &core.RecommendContext{}, []*core.Item{cheap, pricey})
	if got := ids(out); !equalIDs(got, []int64{1}) {
		t.Errorf("got %v", got)
	}
	if lbl, ok := pricey.Labels["filtered"]; !ok || lbl.Source != "filter.rule" {
		t.Errorf("filtered label = %+v", lbl)
	}

	if _, err := NewRuleFilter(`item.price +`); err == nil {
		t.Error("invalid rule should not compile")
	}
}
