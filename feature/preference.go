package feature

import (
	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/vector"
)

// normEpsilon 防止零范数除法。
const normEpsilon = 1e-8

// Preference 是用户偏好向量。Vector 已单位化；全零向量是“无偏好”哨兵。
// Used 为参与计算的收藏物品（按时间倒序），Weights 为对应权重。
type Preference struct {
	Vector  []float64
	Used    []int64
	Weights []float64
}

// IsZero 判断是否为“无偏好”哨兵。使用相似度前必须先检查。
func (p Preference) IsZero() bool {
	return len(p.Used) == 0 || vector.IsZero(p.Vector)
}

// PreferenceBuilder 从用户最近的收藏构建偏好向量。
//
// 算法：
//  1. 过滤掉不在向量索引中的收藏（索引可能落后于目录）
//  2. 取最近的 Window 个
//  3. 为空时返回索引维度的零向量
//  4. 权重从 1.0（最近）线性递减到 0.5（窗口内最旧），加权平均后 L2 单位化
type PreferenceBuilder struct {
	// Window 最近收藏窗口，<= 0 时使用 core.DefaultRecencyWindow
	Window int
}

// Build 计算偏好向量。snap 应为请求开始时获取的同一个快照。
func (b PreferenceBuilder) Build(snap core.VectorLookup, likes *core.LikeSnapshot) Preference {
	window := b.Window
	if window <= 0 {
		window = core.DefaultRecencyWindow
	}

	used := make([]int64, 0, window)
	vecs := make([][]float32, 0, window)
	for _, id := range likes.ItemIDs() {
		if len(used) == window {
			break
		}
		v, ok := snap.VectorOf(id)
		if !ok {
			continue
		}
		used = append(used, id)
		vecs = append(vecs, v)
	}

	dim := snap.Dim()
	if len(used) == 0 {
		return Preference{Vector: make([]float64, dim)}
	}

	weights := RecencyWeights(len(used))
	sum := make([]float64, dim)
	var wsum float64
	for i, v := range vecs {
		for j := range sum {
			sum[j] += weights[i] * float64(v[j])
		}
		wsum += weights[i]
	}
	for j := range sum {
		sum[j] /= wsum
	}
	norm := vector.Norm(sum) + normEpsilon
	for j := range sum {
		sum[j] /= norm
	}
	return Preference{Vector: sum, Used: used, Weights: weights}
}

// RecencyWeights 返回 n 个从 1.0 线性递减到 0.5 的权重；n == 1 时为 [1.0]。
func RecencyWeights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1.0
		return w
	}
	step := 0.5 / float64(n-1)
	for i := range w {
		w[i] = 1.0 - step*float64(i)
	}
	return w
}
