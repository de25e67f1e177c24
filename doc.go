// Package lastcall 是临期食品自提市场的个性化推荐引擎。
//
// 设计要点：
// - Pipeline-first: 召回 → 过滤（地理/亲和/已收藏/规则）→ 打分 → 阈值排序截断，全部是可插拔 Node
// - Labels-first: 每个打分分量写入 labels，explain 直接读取
// - Snapshot-first: 向量索引整体替换，读者永远看到完整的一代快照
package lastcall

import (
	"github.com/rushteam/lastcall/pipeline"
	"github.com/rushteam/lastcall/recommend"
)

// 轻量 facade：便于直接 import "lastcall" 使用核心抽象。
type (
	Engine   = recommend.Engine
	Request  = recommend.Request
	Result   = recommend.Result
	Options  = recommend.Options
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
)

var (
	NewEngine      = recommend.NewEngine
	DefaultOptions = recommend.DefaultOptions
)
