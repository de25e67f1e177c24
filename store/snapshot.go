package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/rushteam/lastcall/core"
)

// 快照二进制格式（小端）：
//
//	magic[4] "LCVX" | format u16 | reserved u16 | version u64 | built_at_unix_nano i64 | count u32 | dim u32
//	ids:     count * i64
//	vectors: count * dim * f32（行优先）
const (
	snapshotMagic   = "LCVX"
	snapshotFormat  = 1
	snapshotHeadLen = 4 + 2 + 2 + 8 + 8 + 4 + 4
)

// ErrCorruptSnapshot 表示快照数据无法解码
var ErrCorruptSnapshot = core.NewDomainError(core.ModuleStore, core.ErrorCodeInternalError, "store: corrupt snapshot")

// EncodeSnapshot 把快照编码为二进制。所有向量必须为 data.Dim 维（空快照时 Dim 可为任意值）。
func EncodeSnapshot(data *core.SnapshotData) ([]byte, error) {
	n := data.Len()
	if len(data.Vectors) != n {
		return nil, fmt.Errorf("encode snapshot: %d ids, %d vectors", n, len(data.Vectors))
	}
	dim := data.Dim
	if n > 0 {
		dim = len(data.Vectors[0])
	}
	if dim < 0 || uint64(dim) > math.MaxUint32 || uint64(n) > math.MaxUint32 {
		return nil, fmt.Errorf("encode snapshot: size out of range")
	}

	buf := make([]byte, snapshotHeadLen+n*8+n*dim*4)
	copy(buf[0:4], snapshotMagic)
	binary.LittleEndian.PutUint16(buf[4:], snapshotFormat)
	binary.LittleEndian.PutUint64(buf[8:], data.Version)
	var builtAt int64
	if !data.BuiltAt.IsZero() {
		builtAt = data.BuiltAt.UnixNano()
	}
	binary.LittleEndian.PutUint64(buf[16:], uint64(builtAt))
	binary.LittleEndian.PutUint32(buf[24:], uint32(n))
	binary.LittleEndian.PutUint32(buf[28:], uint32(dim))

	off := snapshotHeadLen
	for _, id := range data.IDs {
		binary.LittleEndian.PutUint64(buf[off:], uint64(id))
		off += 8
	}
	for i, v := range data.Vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("encode snapshot: item %d has dim %d, want %d", data.IDs[i], len(v), dim)
		}
		for _, x := range v {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(x))
			off += 4
		}
	}
	return buf, nil
}

// DecodeSnapshot 解码 EncodeSnapshot 的输出。
func DecodeSnapshot(buf []byte) (*core.SnapshotData, error) {
	if len(buf) < snapshotHeadLen || string(buf[0:4]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad header", ErrCorruptSnapshot)
	}
	if f := binary.LittleEndian.Uint16(buf[4:]); f != snapshotFormat {
		return nil, fmt.Errorf("%w: unsupported format %d", ErrCorruptSnapshot, f)
	}
	data := &core.SnapshotData{
		Version: binary.LittleEndian.Uint64(buf[8:]),
	}
	if ns := int64(binary.LittleEndian.Uint64(buf[16:])); ns != 0 {
		data.BuiltAt = time.Unix(0, ns)
	}
	n := int(binary.LittleEndian.Uint32(buf[24:]))
	dim := int(binary.LittleEndian.Uint32(buf[28:]))
	data.Dim = dim

	// 先用除法约束 n，再相乘，避免溢出后放过损坏的头
	body := uint64(len(buf) - snapshotHeadLen)
	perItem := 8 + 4*uint64(dim)
	if uint64(n) > body/perItem || uint64(n)*perItem != body {
		return nil, fmt.Errorf("%w: %d items of dim %d do not fit %d bytes", ErrCorruptSnapshot, n, dim, len(buf))
	}

	off := snapshotHeadLen
	data.IDs = make([]int64, n)
	for i := range data.IDs {
		data.IDs[i] = int64(binary.LittleEndian.Uint64(buf[off:]))
		off += 8
	}
	data.Vectors = make([][]float32, n)
	flat := make([]float32, n*dim)
	for i := range flat {
		flat[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
	}
	for i := range data.Vectors {
		data.Vectors[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return data, nil
}

// SnapshotRepository 把向量快照存放在一个 core.Store 的 key 下，实现 core.SnapshotStore。
type SnapshotRepository struct {
	Store core.Store
	Key   string
}

func NewSnapshotRepository(s core.Store, key string) *SnapshotRepository {
	return &SnapshotRepository{Store: s, Key: key}
}

// Load 读取快照；不存在时返回 core.ErrStoreNotFound（已包装）。
func (r *SnapshotRepository) Load(ctx context.Context) (*core.SnapshotData, error) {
	buf, err := r.Store.Get(ctx, r.Key)
	if err != nil {
		return nil, fmt.Errorf("load snapshot from %s: %w", r.Store.Name(), err)
	}
	return DecodeSnapshot(buf)
}

func (r *SnapshotRepository) Save(ctx context.Context, data *core.SnapshotData) error {
	buf, err := EncodeSnapshot(data)
	if err != nil {
		return err
	}
	if err := r.Store.Set(ctx, r.Key, buf); err != nil {
		return fmt.Errorf("save snapshot to %s: %w", r.Store.Name(), err)
	}
	return nil
}
