package geo

import "math"

// EarthRadiusKm 地球平均半径（公里）
const EarthRadiusKm = 6371.0

// DistanceKm 计算两点间大圆距离（haversine 公式），单位公里
// 内部保留全精度，展示时再用 RoundKm 取一位小数
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceBetween 坐标可缺省的版本
// 任一侧缺坐标时返回 false，调用方不得伪造距离
func DistanceBetween(lat1, lon1, lat2, lon2 *float64) (float64, bool) {
	if lat1 == nil || lon1 == nil || lat2 == nil || lon2 == nil {
		return 0, false
	}
	return DistanceKm(*lat1, *lon1, *lat2, *lon2), true
}

// RoundKm 展示用，四舍五入到一位小数
func RoundKm(d float64) float64 {
	return math.Round(d*10) / 10
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
