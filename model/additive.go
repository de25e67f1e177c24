package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Term 是加法模型中的一项：特征名与权重。
type Term struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// AdditiveModel 是纯加法打分模型：score = Bias + sum(Weight_i * Feature_i)。
//
// 不做 sigmoid 变换，总分与相似度同一量纲。Terms 按声明顺序累加。
type AdditiveModel struct {
	Bias  float64
	Terms []Term
}

// LoadAdditiveModel 从 JSON 文件加载：{"bias": 0, "terms": [{"feature": "similarity", "weight": 1}]}
func LoadAdditiveModel(path string) (*AdditiveModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Bias  float64 `json:"bias"`
		Terms []Term  `json:"terms"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse additive model: %w", err)
	}
	return &AdditiveModel{Bias: raw.Bias, Terms: raw.Terms}, nil
}

func (m *AdditiveModel) Name() string { return "additive" }

// Predict 缺失的特征按 0 处理。
func (m *AdditiveModel) Predict(features map[string]float64) (float64, error) {
	score := m.Bias
	for _, t := range m.Terms {
		score += t.Weight * features[t.Feature]
	}
	return score, nil
}

// Contribution 返回单项贡献 Weight * Feature。
func (m *AdditiveModel) Contribution(feature string, features map[string]float64) float64 {
	var sum float64
	for _, t := range m.Terms {
		if t.Feature == feature {
			sum += t.Weight * features[feature]
		}
	}
	return sum
}
