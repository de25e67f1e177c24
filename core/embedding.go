package core

import (
	"context"
	"time"
)

// Embedder 是外部 embedding 服务的领域接口：输入一段文本，输出固定维度的向量。
//
// 实现：
//   - service.EmbeddingClient（OpenAI 兼容接口）
//   - 测试中的假实现
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorLookup 是向量快照的只读视图，供偏好构建与打分使用。
// 一次请求内应持有同一个 VectorLookup，不要在中途重新获取。
type VectorLookup interface {
	// Dim 返回向量维度（空索引时为继承或默认维度）
	Dim() int
	// Len 返回物品数量
	Len() int
	// VectorOf 返回物品向量；物品不在索引中时返回 (nil, false)
	VectorOf(itemID int64) ([]float32, bool)
}

// SnapshotData 是持久化的向量快照：两个平行数组加元信息。
type SnapshotData struct {
	IDs     []int64
	Vectors [][]float32
	Dim     int
	Version uint64
	BuiltAt time.Time
}

// Len 返回快照中的物品数量。
func (d *SnapshotData) Len() int {
	if d == nil {
		return 0
	}
	return len(d.IDs)
}

// SnapshotStore 是向量快照的持久化接口。
//
// Load 在快照不存在时返回 ErrStoreNotFound（调用方据此以空索引启动）。
//
// 实现：
//   - store.SnapshotRepository（基于 core.Store：memory / redis / file）
type SnapshotStore interface {
	Load(ctx context.Context) (*SnapshotData, error)
	Save(ctx context.Context, data *SnapshotData) error
}
