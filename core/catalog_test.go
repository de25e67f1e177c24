package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestLikeSnapshot_Affinity(t *testing.T) {
	snap := &LikeSnapshot{
		UserID: "u1",
		Likes: []Like{
			{ItemID: 1, CategoryID: 10, StoreID: 100},
			{ItemID: 2, CategoryID: 11, StoreID: 100},
		},
		Keywords: []string{"bread", "vegan"},
	}
	a := snap.Affinity()
	if !a.HasStore(100) || a.HasStore(101) {
		t.Errorf("stores = %v", a.Stores)
	}
	if !a.HasCategory(10) || !a.HasCategory(11) || a.HasCategory(12) {
		t.Errorf("categories = %v", a.Categories)
	}
	if !a.HasItem(2) {
		t.Errorf("items = %v", a.Items)
	}

	tests := []struct {
		name     string
		keywords []string
		want     int
	}{
		{name: "no keywords", keywords: nil, want: 0},
		{name: "one overlap", keywords: []string{"bread", "milk"}, want: 1},
		{name: "duplicates counted once", keywords: []string{"bread", "bread", "vegan"}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.KeywordOverlap(tt.keywords); got != tt.want {
				t.Errorf("KeywordOverlap() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLikeSnapshot_Nil(t *testing.T) {
	var snap *LikeSnapshot
	if snap.Len() != 0 || snap.ItemIDs() != nil {
		t.Fatal("nil snapshot should be empty")
	}
	if a := snap.Affinity(); len(a.Stores) != 0 {
		t.Fatalf("nil snapshot affinity = %v", a.Stores)
	}
}

func TestDomainError_Wrapped(t *testing.T) {
	err := fmt.Errorf("load snapshot: %w", ErrStoreNotFound)
	if !IsStoreNotFound(err) {
		t.Error("IsStoreNotFound should see through wrapping")
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should see through wrapping")
	}
	if IsInvalidInput(err) {
		t.Error("IsInvalidInput should be false")
	}
	if !errors.Is(err, ErrStoreNotFound) {
		t.Error("errors.Is should match sentinel")
	}
}

func TestMergeLabel(t *testing.T) {
	got := MergeLabel(Label{Value: "a", Source: "rank"}, Label{Value: "b", Source: "rank"})
	if got.Value != "a|b" || got.Source != "rank" {
		t.Errorf("MergeLabel() = %+v", got)
	}
	got = MergeLabel(Label{Value: "a", Source: "recall"}, Label{Value: "b", Source: "rank"})
	if got.Source != "recall,rank" {
		t.Errorf("MergeLabel() source = %q", got.Source)
	}
	if s := FormatLabels(map[string]Label{"b": {Value: "2"}, "a": {Value: "1"}}); s != "a=1 b=2" {
		t.Errorf("FormatLabels() = %q", s)
	}
}
