package dsl

import (
	"testing"
	"time"

	"github.com/rushteam/lastcall/core"
)

func TestRule_Evaluate(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	item := core.NewCandidate(&core.CatalogItem{
		ID:           1,
		CategoryID:   3,
		StoreID:      9,
		Price:        8000,
		DiscountRate: 40,
		ExpiresAt:    now.Add(5 * time.Hour),
		Keywords:     []string{"bread", "vegan"},
	})
	item.SetFeature("distance_km", 1.5)
	rctx := &core.RecommendContext{UserID: "u1", Now: now, Likes: &core.LikeSnapshot{Likes: []core.Like{{ItemID: 2}}}}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "discount", expr: `item.discount_rate >= 30.0`, want: true},
		{name: "expiry", expr: `item.hours_to_expiry > 6.0`, want: false},
		{name: "keyword", expr: `"vegan" in item.keywords`, want: true},
		{name: "distance", expr: `item.distance_km <= 1.0`, want: false},
		{name: "ids", expr: `item.category_id == 3 && item.store_id == 9`, want: true},
		{name: "user", expr: `user.like_count > 0 && user.id == "u1"`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := r.Evaluate(item, rctx)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, expr := range []string{`item.price +`, `"not a bool"`} {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) should fail", expr)
		}
	}
}
