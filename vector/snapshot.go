package vector

import (
	"fmt"
	"time"

	"github.com/rushteam/lastcall/core"
)

var (
	// ErrDimensionMismatch 表示同一快照中的向量维度不一致
	ErrDimensionMismatch = core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: dimension mismatch")

	// ErrDuplicateID 表示快照中存在重复的物品 ID
	ErrDuplicateID = core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: duplicate item id")

	// ErrLengthMismatch 表示 ids 与 vectors 长度不一致
	ErrLengthMismatch = core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: ids and vectors length mismatch")

	// ErrStaleSnapshot 表示待发布的快照不是当前快照的下一代
	ErrStaleSnapshot = core.NewDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "vector: stale snapshot")
)

// Snapshot 是不可变的向量快照：平行的 ids/vectors 数组加 id -> row 映射。
// 构建完成后不再修改，可被任意多个读者并发访问。
type Snapshot struct {
	ids     []int64
	vectors [][]float32
	rows    map[int64]int
	dim     int
	version uint64
	builtAt time.Time
}

// newSnapshot 拷贝输入并校验：ID 唯一、维度一致。空输入得到维度为 dim 的空快照。
func newSnapshot(ids []int64, vecs [][]float32, dim int, version uint64) (*Snapshot, error) {
	if len(ids) != len(vecs) {
		return nil, fmt.Errorf("%w: %d ids, %d vectors", ErrLengthMismatch, len(ids), len(vecs))
	}
	if len(vecs) > 0 {
		dim = len(vecs[0])
	}
	s := &Snapshot{
		ids:     make([]int64, len(ids)),
		vectors: make([][]float32, len(vecs)),
		rows:    make(map[int64]int, len(ids)),
		dim:     dim,
		version: version,
		builtAt: time.Now(),
	}
	copy(s.ids, ids)
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: item %d has %d, want %d", ErrDimensionMismatch, ids[i], len(v), dim)
		}
		if _, dup := s.rows[ids[i]]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, ids[i])
		}
		s.rows[ids[i]] = i
		s.vectors[i] = append([]float32(nil), v...)
	}
	return s, nil
}

// Lookup 返回物品所在行号。
func (s *Snapshot) Lookup(id int64) (int, bool) {
	row, ok := s.rows[id]
	return row, ok
}

// Vector 返回第 row 行的向量（只读，调用方不得修改）。
func (s *Snapshot) Vector(row int) []float32 {
	return s.vectors[row]
}

// VectorOf 实现 core.VectorLookup。
func (s *Snapshot) VectorOf(id int64) ([]float32, bool) {
	row, ok := s.rows[id]
	if !ok {
		return nil, false
	}
	return s.vectors[row], true
}

// Contains 判断物品是否在索引中。
func (s *Snapshot) Contains(id int64) bool {
	_, ok := s.rows[id]
	return ok
}

func (s *Snapshot) Dim() int           { return s.dim }
func (s *Snapshot) Len() int           { return len(s.ids) }
func (s *Snapshot) Version() uint64    { return s.version }
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// IDs 返回物品 ID 的拷贝（按行顺序）。
func (s *Snapshot) IDs() []int64 {
	return append([]int64(nil), s.ids...)
}

// Data 导出为可持久化的 core.SnapshotData（共享底层向量，只读使用）。
func (s *Snapshot) Data() *core.SnapshotData {
	return &core.SnapshotData{
		IDs:     s.IDs(),
		Vectors: s.vectors,
		Dim:     s.dim,
		Version: s.version,
		BuiltAt: s.builtAt,
	}
}
