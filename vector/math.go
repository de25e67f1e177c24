package vector

import "math"

// Dot 计算 float32 向量与 float64 向量的内积，按 float64 累加。长度不一致时返回 0。
func Dot(a []float32, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * b[i]
	}
	return sum
}

// Norm 计算 L2 范数。
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// IsZero 判断向量是否全零（“无偏好”哨兵）。
func IsZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
