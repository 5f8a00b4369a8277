package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_SamePoint(t *testing.T) {
	d := DistanceKm(37.4275, -122.1697, 37.4275, -122.1697)
	if d != 0 {
		t.Errorf("同一点距离应为 0，得到 %f", d)
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// 校园主楼到镇中心，实测约 2.8 公里
	d := DistanceKm(37.4275, -122.1697, 37.4419, -122.1430)
	if math.Abs(d-2.8) > 0.2 {
		t.Errorf("期望约 2.8km，得到 %f", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	d1 := DistanceKm(37.4275, -122.1697, 37.4419, -122.1430)
	d2 := DistanceKm(37.4419, -122.1430, 37.4275, -122.1697)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("距离应对称: %f vs %f", d1, d2)
	}
}

func TestDistanceBetween_NilCoordinates(t *testing.T) {
	lat := 37.4275
	lng := -122.1697

	if _, ok := DistanceBetween(&lat, &lng, nil, nil); ok {
		t.Error("目标缺坐标时不应返回距离")
	}
	if _, ok := DistanceBetween(nil, nil, &lat, &lng); ok {
		t.Error("起点缺坐标时不应返回距离")
	}
	if d, ok := DistanceBetween(&lat, &lng, &lat, &lng); !ok || d != 0 {
		t.Errorf("同一点应返回 (0, true)，得到 (%f, %v)", d, ok)
	}
}

func TestRoundKm(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{2.84999, 2.8},
		{2.85001, 2.9},
		{0.04, 0.0},
		{12.0, 12.0},
	}
	for _, c := range cases {
		if got := RoundKm(c.in); got != c.want {
			t.Errorf("RoundKm(%f) = %f, 期望 %f", c.in, got, c.want)
		}
	}
}
