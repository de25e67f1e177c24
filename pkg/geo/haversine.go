// Package geo 提供球面距离计算。
package geo

import "math"

// EarthRadiusKm 地球平均半径（千米）。
const EarthRadiusKm = 6371.0

// Haversine 返回两点之间的大圆距离（千米），输入为角度制经纬度。
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceScore 把距离映射到 (0, 1]：1 / (1 + d)，距离越近分数越高。
func DistanceScore(km float64) float64 {
	if km < 0 {
		km = 0
	}
	return 1 / (1 + km)
}
