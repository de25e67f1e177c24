package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/vector"
)

func newRctx(t *testing.T, pref []float64, likes *core.LikeSnapshot, g *core.GeoQuery) *core.RecommendContext {
	t.Helper()
	idx, err := vector.Load(
		[]int64{1, 2, 3},
		[][]float32{{1, 0}, {1, 0}, {0.5, 0.5}},
		2,
	)
	if err != nil {
		t.Fatal(err)
	}
	return &core.RecommendContext{Vectors: idx.Current(), Preference: pref, Likes: likes, Geo: g}
}

func item(id, category, store int64, lat, lng float64, keywords ...string) *core.Item {
	return core.NewCandidate(&core.CatalogItem{
		ID: id, CategoryID: category, StoreID: store, Lat: lat, Lng: lng,
		Keywords: keywords, Active: true, Stock: 1,
	})
}

func TestScorer_ZeroPreference(t *testing.T) {
	rctx := newRctx(t, []float64{0, 0}, nil, nil)
	out, err := (&Scorer{Weights: DefaultWeights()}).Process(context.Background(), rctx, []*core.Item{item(1, 1, 1, 0, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("zero preference should score nothing, got %d items", len(out))
	}
}

func TestScorer_Bonuses(t *testing.T) {
	likes := &core.LikeSnapshot{
		Likes:    []core.Like{{ItemID: 99, CategoryID: 7, StoreID: 70}},
		Keywords: []string{"bread", "vegan"},
	}
	w := Weights{Store: 0.1, Category: 0.5, Distance: 0.3, Keyword: 0.1}

	tests := []struct {
		name string
		it   *core.Item
		geo  *core.GeoQuery
		want float64
	}{
		{name: "similarity only", it: item(1, 1, 1, 0, 0), want: 1.0},
		{name: "store match", it: item(1, 1, 70, 0, 0), want: 1.1},
		{name: "category match", it: item(1, 7, 1, 0, 0), want: 1.5},
		{name: "keyword overlap", it: item(1, 1, 1, 0, 0, "bread", "vegan", "milk"), want: 1.2},
		{name: "distance at user location", it: item(1, 1, 1, 10, 10), geo: &core.GeoQuery{Lat: 10, Lng: 10, RadiusKm: 5}, want: 1.3},
		{name: "all bonuses", it: item(3, 7, 70, 10, 10, "bread"), geo: &core.GeoQuery{Lat: 10, Lng: 10, RadiusKm: 5}, want: 0.5 + 0.1 + 0.5 + 0.3 + 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := newRctx(t, []float64{1, 0}, likes, tt.geo)
			out, err := (&Scorer{Weights: w}).Process(context.Background(), rctx, []*core.Item{tt.it})
			if err != nil {
				t.Fatal(err)
			}
			if len(out) != 1 {
				t.Fatalf("got %d items", len(out))
			}
			if math.Abs(out[0].Score-tt.want) > 1e-9 {
				t.Errorf("Score = %v, want %v (features %v)", out[0].Score, tt.want, out[0].Features)
			}
			sim := out[0].Features[FeatureSimilarity]
			if math.Abs(sim+out[0].Features[FeatureBonus]-out[0].Score) > 1e-12 {
				t.Errorf("similarity + bonus != total")
			}
		})
	}
}

func TestScorer_DistanceMonotonic(t *testing.T) {
	g := &core.GeoQuery{Lat: 37.5665, Lng: 126.9780, RadiusKm: 5}
	rctx := newRctx(t, []float64{1, 0}, nil, g)
	closer := item(1, 1, 1, 37.5670, 126.9785)
	farther := item(2, 1, 2, 37.5900, 127.0000)

	out, err := (&Scorer{Weights: DefaultWeights()}).Process(context.Background(), rctx, []*core.Item{farther, closer})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d items", len(out))
	}
	// 保持输入顺序
	if out[0].ID != 2 || out[1].ID != 1 {
		t.Fatalf("order changed: %d, %d", out[0].ID, out[1].ID)
	}
	if !(closer.Score > farther.Score) {
		t.Errorf("closer %v should outscore farther %v", closer.Score, farther.Score)
	}
	if _, ok := closer.Labels["bonus.distance_score"]; !ok {
		t.Errorf("missing distance label: %v", core.FormatLabels(closer.Labels))
	}
}

func TestScorer_NoDistanceWithoutGeo(t *testing.T) {
	rctx := newRctx(t, []float64{1, 0}, nil, nil)
	out, _ := (&Scorer{Weights: DefaultWeights()}).Process(context.Background(), rctx, []*core.Item{item(1, 1, 1, 0, 0)})
	if got := out[0].Features[FeatureDistanceScore]; got != 0 {
		t.Errorf("distance_score = %v, want 0", got)
	}
}

func TestScorer_SkipsUnknownVectors(t *testing.T) {
	rctx := newRctx(t, []float64{1, 0}, nil, nil)
	out, _ := (&Scorer{Weights: DefaultWeights()}).Process(context.Background(), rctx, []*core.Item{item(42, 1, 1, 0, 0), item(2, 1, 1, 0, 0)})
	if len(out) != 1 || out[0].ID != 2 {
		t.Fatalf("got %v", out)
	}
}
