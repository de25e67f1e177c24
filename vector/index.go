package vector

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rushteam/lastcall/core"
)

// Index 是进程级共享的向量索引容器。
//
// 并发模型：
//   - 读者在请求开始时调用 Current() 获取快照，整个请求内只使用这一个快照
//   - Replace 在旁路构建完整的新快照，再以一次原子指针写入发布
//   - 读者从不阻塞在 Replace 上，Replace 也不等待读者
//
// 示例：
//
//	idx, _ := vector.Load(ids, vecs, 1536)
//	snap := idx.Current()
//	if row, ok := snap.Lookup(42); ok {
//	    v := snap.Vector(row)
//	}
type Index struct {
	current    atomic.Pointer[Snapshot]
	defaultDim int
}

var _ core.VectorLookup = (*Snapshot)(nil)

// Load 从持久化的 (ids, vectors) 构建索引。
// 输入为空时返回零物品、维度为 defaultDim 的索引。
func Load(ids []int64, vecs [][]float32, defaultDim int) (*Index, error) {
	if defaultDim <= 0 {
		defaultDim = core.DefaultDimension
	}
	snap, err := newSnapshot(ids, vecs, defaultDim, 1)
	if err != nil {
		return nil, err
	}
	idx := &Index{defaultDim: defaultDim}
	idx.current.Store(snap)
	return idx, nil
}

// LoadData 从 core.SnapshotData 构建索引，沿用持久化的版本号与构建时间；
// data 为 nil 时等价于空快照。
func LoadData(data *core.SnapshotData, defaultDim int) (*Index, error) {
	if data == nil {
		return Load(nil, nil, defaultDim)
	}
	if defaultDim <= 0 {
		defaultDim = core.DefaultDimension
	}
	dim := defaultDim
	if data.Len() == 0 && data.Dim > 0 {
		dim = data.Dim
	}
	version := data.Version
	if version == 0 {
		version = 1
	}
	snap, err := newSnapshot(data.IDs, data.Vectors, dim, version)
	if err != nil {
		return nil, err
	}
	if !data.BuiltAt.IsZero() {
		snap.builtAt = data.BuiltAt
	}
	idx := &Index{defaultDim: defaultDim}
	idx.current.Store(snap)
	return idx, nil
}

// Current 返回当前发布的快照，永不为 nil。
func (idx *Index) Current() *Snapshot {
	return idx.current.Load()
}

// Replace 原子替换当前快照。校验失败时旧快照保持不变。
// 新快照为空时继承上一次的维度。
func (idx *Index) Replace(ids []int64, vecs [][]float32) error {
	for {
		snap, err := idx.Prepare(ids, vecs)
		if err != nil {
			return err
		}
		if err := idx.Publish(snap); !errors.Is(err, ErrStaleSnapshot) {
			return err
		}
	}
}

// Prepare 基于当前快照在旁路构建下一代快照（版本号 +1），不发布。
// 调用方可以先持久化 snap.Data()，再 Publish，保证持久化的版本与内存一致。
func (idx *Index) Prepare(ids []int64, vecs [][]float32) (*Snapshot, error) {
	cur := idx.current.Load()
	return newSnapshot(ids, vecs, cur.dim, cur.version+1)
}

// Publish 发布 Prepare 得到的快照。
// Prepare 之后已有其他快照发布时返回 ErrStaleSnapshot，当前快照不变。
func (idx *Index) Publish(snap *Snapshot) error {
	cur := idx.current.Load()
	if cur.version+1 != snap.version || !idx.current.CompareAndSwap(cur, snap) {
		return fmt.Errorf("%w: prepared version %d, current %d", ErrStaleSnapshot, snap.version, idx.current.Load().version)
	}
	return nil
}

// DefaultDim 返回配置的默认维度。
func (idx *Index) DefaultDim() int {
	return idx.defaultDim
}
