package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAdditiveModel_Predict(t *testing.T) {
	m := &AdditiveModel{Terms: []Term{
		{Feature: "similarity", Weight: 1},
		{Feature: "store_match", Weight: 0.1},
		{Feature: "distance_score", Weight: 0.3},
	}}
	tests := []struct {
		name     string
		features map[string]float64
		want     float64
	}{
		{name: "similarity only", features: map[string]float64{"similarity": 0.8}, want: 0.8},
		{name: "all terms", features: map[string]float64{"similarity": 0.5, "store_match": 1, "distance_score": 0.5}, want: 0.75},
		{name: "unknown features ignored", features: map[string]float64{"other": 9}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Predict(tt.features)
			if err != nil {
				t.Fatal(err)
			}
			if diff := got - tt.want; diff > 1e-12 || diff < -1e-12 {
				t.Errorf("Predict() = %v, want %v", got, tt.want)
			}
		})
	}
	if c := m.Contribution("store_match", map[string]float64{"store_match": 1}); c != 0.1 {
		t.Errorf("Contribution() = %v", c)
	}
}

func TestLoadAdditiveModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	body := `{"bias": 0.5, "terms": [{"feature": "similarity", "weight": 2}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := LoadAdditiveModel(path)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := m.Predict(map[string]float64{"similarity": 1})
	if got != 2.5 {
		t.Errorf("Predict() = %v, want 2.5", got)
	}
}
