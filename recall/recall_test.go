package recall

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/store"
	"github.com/rushteam/lastcall/vector"
)

func testCatalog() *store.MemoryCatalog {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return store.NewMemoryCatalog(
		&core.CatalogItem{ID: 1, Name: "bread", Active: true, Stock: 3, CreatedAt: base},
		&core.CatalogItem{ID: 2, Name: "milk", Active: true, Stock: 0, CreatedAt: base.Add(time.Hour)},
		&core.CatalogItem{ID: 3, Name: "bento", Active: true, Stock: 1, CreatedAt: base.Add(2 * time.Hour)},
		&core.CatalogItem{ID: 4, Name: "salad", Active: false, Stock: 5, CreatedAt: base.Add(3 * time.Hour)},
		&core.CatalogItem{ID: 5, Name: "juice", Active: true, Stock: 2, CreatedAt: base.Add(4 * time.Hour)},
	)
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

func TestCatalogSource(t *testing.T) {
	ctx := context.Background()
	idx, err := vector.Load([]int64{5, 1, 2, 4}, [][]float32{{1, 0}, {0, 1}, {1, 1}, {1, 0}}, 2)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		rctx *core.RecommendContext
		want []int64
	}{
		{
			name: "fetches catalog when not prefetched",
			rctx: &core.RecommendContext{Vectors: idx.Current()},
			want: []int64{1, 5},
		},
		{
			name: "uses prefetched candidates and drops duplicates",
			rctx: &core.RecommendContext{
				Vectors: idx.Current(),
				Candidates: []*core.CatalogItem{
					{ID: 5, Active: true, Stock: 1},
					{ID: 1, Active: true, Stock: 1},
					{ID: 5, Active: true, Stock: 1},
					{ID: 3, Active: true, Stock: 1},
				},
			},
			want: []int64{5, 1},
		},
		{
			name: "no index yields nothing",
			rctx: &core.RecommendContext{},
			want: []int64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &CatalogSource{Catalog: testCatalog()}
			items, err := src.Process(ctx, tt.rctx, nil)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if got := ids(items); !equalIDs(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
			for _, it := range items {
				if lbl := it.Labels["recall_source"]; lbl.Value != "catalog" {
					t.Errorf("item %d recall_source = %q", it.ID, lbl.Value)
				}
				if it.Attrs == nil {
					t.Errorf("item %d missing attrs", it.ID)
				}
			}
		})
	}
}

func TestCatalogSource_CachesCandidates(t *testing.T) {
	rctx := &core.RecommendContext{}
	src := &CatalogSource{Catalog: testCatalog()}
	if _, err := src.Recall(context.Background(), rctx); err != nil {
		t.Fatal(err)
	}
	if len(rctx.Candidates) != 3 {
		t.Errorf("candidates = %d, want 3 available items", len(rctx.Candidates))
	}
}

func TestRecent(t *testing.T) {
	src := &Recent{Catalog: testCatalog(), Limit: 2}
	items, err := src.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got := ids(items); !equalIDs(got, []int64{5, 3}) {
		t.Errorf("ids = %v, want [5 3]", got)
	}
	if lbl := items[0].Labels["recall_source"]; lbl.Value != "recent" {
		t.Errorf("recall_source = %q", lbl.Value)
	}

	empty, err := (&Recent{}).Recall(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("Recall() without catalog = %v, %v", empty, err)
	}
}
