package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/lastcall/core"
)

func scored(pairs ...any) []*core.Item {
	out := make([]*core.Item, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		it := core.NewItem(int64(pairs[i].(int)))
		it.Score = pairs[i+1].(float64)
		out = append(out, it)
	}
	return out
}

func idsOf(items []*core.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestRanker_Process(t *testing.T) {
	const A, B, C, D = 1, 2, 3, 4

	tests := []struct {
		name      string
		items     []*core.Item
		threshold float64
		limit     int
		want      []int64
	}{
		{
			name:      "threshold and limit",
			items:     scored(C, 0.4, A, 0.9, B, 0.6),
			threshold: 0.5,
			limit:     2,
			want:      []int64{A, B},
		},
		{
			name:      "threshold is inclusive",
			items:     scored(A, 1.0, B, 0.99),
			threshold: 1.0,
			limit:     10,
			want:      []int64{A},
		},
		{
			name:      "nothing survives",
			items:     scored(A, 0.1, B, 0.2),
			threshold: 0.5,
			limit:     10,
			want:      []int64{},
		},
		{
			name:      "ties keep candidate order",
			items:     scored(C, 0.7, A, 0.7, D, 0.9, B, 0.7),
			threshold: 0,
			limit:     10,
			want:      []int64{D, C, A, B},
		},
		{
			name:      "duplicates keep best",
			items:     scored(A, 0.6, B, 0.8, A, 0.9),
			threshold: 0,
			limit:     10,
			want:      []int64{A, B},
		},
		{
			name:      "non-positive limit returns all",
			items:     scored(A, 0.6, B, 0.8),
			threshold: 0,
			limit:     0,
			want:      []int64{B, A},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Ranker{Threshold: tt.threshold, Limit: tt.limit}
			out, err := r.Process(context.Background(), &core.RecommendContext{}, tt.items)
			if err != nil {
				t.Fatal(err)
			}
			got := idsOf(out)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
			for _, it := range out {
				if it.Score < tt.threshold {
					t.Errorf("item %d below threshold: %v", it.ID, it.Score)
				}
			}
		})
	}
}

func TestTopNNode(t *testing.T) {
	items := scored(1, 0.5, 2, 0.4, 3, 0.3)
	out, _ := (&TopNNode{N: 2}).Process(context.Background(), nil, items)
	if len(out) != 2 {
		t.Fatalf("got %d", len(out))
	}
	out, _ = (&TopNNode{N: 5}).Process(context.Background(), nil, items)
	if len(out) != 3 {
		t.Fatalf("got %d", len(out))
	}
}

func TestRanker_LimitParam(t *testing.T) {
	rctx := &core.RecommendContext{Params: map[string]any{core.ParamLimit: 1}}
	out, err := (&Ranker{Threshold: 0, Limit: 10}).Process(context.Background(), rctx, scored(1, 0.5, 2, 0.9))
	if err != nil {
		t.Fatal(err)
	}
	if got := idsOf(out); len(got) != 1 || got[0] != 2 {
		t.Errorf("got %v, want [2]", got)
	}
	if lbl := out[0].Labels["rank_position"]; lbl.Value != "1" {
		t.Errorf("rank_position = %q", lbl.Value)
	}
}
