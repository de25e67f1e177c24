package recommend

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/pkg/validation"
)

// ErrInvalidGeo 表示请求中的坐标或半径不合法。
var ErrInvalidGeo = core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "recommend: invalid geo query")

// ParseGeo 解析请求边界上的坐标与半径（字符串形式，如查询参数）。
//
//   - lat/lng 都为空：不做地理过滤，返回 nil
//   - 只给出其中一个：ErrInvalidGeo
//   - radius 为空：使用 maxKm；大于 maxKm 时截断为 maxKm；非正数或无法解析：ErrInvalidGeo
func ParseGeo(lat, lng, radius string, maxKm float64) (*core.GeoQuery, error) {
	lat, lng, radius = strings.TrimSpace(lat), strings.TrimSpace(lng), strings.TrimSpace(radius)
	if lat == "" && lng == "" {
		return nil, nil
	}
	if lat == "" || lng == "" {
		return nil, fmt.Errorf("%w: lat and lng must be given together", ErrInvalidGeo)
	}
	if maxKm <= 0 {
		maxKm = core.DefaultMaxRadiusKm
	}

	q := &core.GeoQuery{RadiusKm: maxKm}
	var err error
	if q.Lat, err = parseFinite("lat", lat); err != nil {
		return nil, err
	}
	if q.Lng, err = parseFinite("lng", lng); err != nil {
		return nil, err
	}
	if radius != "" {
		if q.RadiusKm, err = parseFinite("radius", radius); err != nil {
			return nil, err
		}
	}
	return CheckGeo(q, maxKm)
}

// CheckGeo 校验调用方直接构造的 GeoQuery，返回半径截断到 maxKm 的拷贝，不修改 q。
// q 为 nil 表示不做地理过滤。NaN/Inf 与越界坐标返回 ErrInvalidGeo。
func CheckGeo(q *core.GeoQuery, maxKm float64) (*core.GeoQuery, error) {
	if q == nil {
		return nil, nil
	}
	if maxKm <= 0 {
		maxKm = core.DefaultMaxRadiusKm
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"lat", q.Lat}, {"lng", q.Lng}, {"radius", q.RadiusKm}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return nil, fmt.Errorf("%w: %s is not a finite number", ErrInvalidGeo, f.name)
		}
	}
	out := *q
	out.RadiusKm = math.Min(out.RadiusKm, maxKm)
	if err := validation.Struct(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeo, err)
	}
	return &out, nil
}

func parseFinite(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidGeo, name, s)
	}
	return v, nil
}
