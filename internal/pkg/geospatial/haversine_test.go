package geospatial

import (
	"math"
	"testing"
)

func TestHaversine_ZeroDistance(t *testing.T) {
	if d := Haversine(116.404, 39.915, 116.404, 39.915); d != 0 {
		t.Fatalf("same point should be 0m apart, got %v", d)
	}
}

func TestHaversine_OneDegree(t *testing.T) {
	// One degree of arc on a 6371km sphere is 6371·π/180 km.
	want := 6371.0 * math.Pi / 180 * 1000

	if d := Haversine(0, 0, 0, 1); math.Abs(d-want) > 1 {
		t.Errorf("1° of latitude: got %vm, want %vm", d, want)
	}
	if d := Haversine(0, 0, 1, 0); math.Abs(d-want) > 1 {
		t.Errorf("1° of longitude at the equator: got %vm, want %vm", d, want)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	ab := Haversine(116.322, 39.895, 116.397, 39.909)
	ba := Haversine(116.397, 39.909, 116.322, 39.895)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance must be symmetric: %v vs %v", ab, ba)
	}
	// Beijing West Station to Tiananmen is roughly 6.5km.
	if ab < 5000 || ab > 8000 {
		t.Errorf("implausible distance %vm", ab)
	}
}
