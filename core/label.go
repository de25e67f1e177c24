package core

import (
	"sort"
	"strings"
)

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 打分节点为每一项加分写入一个 Label（如 bonus.store = "0.1"），用于 --explain 输出与日志。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / rerank / fallback
}

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积（去重）。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "" || existing.Source == incoming.Source:
		merged.Source = incoming.Source
	case incoming.Source == "":
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// FormatLabels 按 key 排序输出 "k=v" 列表，便于日志与命令行展示。
func FormatLabels(labels map[string]Label) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k].Value)
	}
	return strings.Join(parts, " ")
}
