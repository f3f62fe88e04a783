package geodesy

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestHaversineZero(t *testing.T) {
	if d := Haversine(1.35, 103.8, 1.35, 103.8); d != 0 {
		t.Errorf("Haversine(a,a) = %v, want 0", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	d1 := Haversine(1.30, 103.80, 1.31, 103.81)
	d2 := Haversine(1.31, 103.81, 1.30, 103.80)
	if !almostEqual(d1, d2, 1e-9) {
		t.Errorf("Haversine not symmetric: %v vs %v", d1, d2)
	}
}

func TestHaversineTriangleInequality(t *testing.T) {
	a := [2]float64{1.30, 103.80}
	b := [2]float64{1.35, 103.85}
	c := [2]float64{1.40, 103.70}

	ab := Haversine(a[0], a[1], b[0], b[1])
	bc := Haversine(b[0], b[1], c[0], c[1])
	ac := Haversine(a[0], a[1], c[0], c[1])

	if ac > ab+bc+1.0 {
		t.Errorf("triangle inequality violated: ac=%v > ab+bc=%v", ac, ab+bc)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Roughly 1 degree of latitude ~ 111km.
	d := Haversine(0, 0, 1, 0)
	if !almostEqual(d, 111_195, 500) {
		t.Errorf("Haversine(0,0,1,0) = %v, want ~111195", d)
	}
}

func TestBearingCardinal(t *testing.T) {
	// Due north.
	b := Bearing(0, 0, 1, 0)
	if !almostEqual(b, 0, 1) {
		t.Errorf("bearing north = %v, want ~0", b)
	}
	// Due east.
	b = Bearing(0, 0, 0, 1)
	if !almostEqual(b, 90, 1) {
		t.Errorf("bearing east = %v, want ~90", b)
	}
	// Due south.
	b = Bearing(1, 0, 0, 0)
	if !almostEqual(b, 180, 1) {
		t.Errorf("bearing south = %v, want ~180", b)
	}
}

func TestBearingRange(t *testing.T) {
	b := Bearing(1, 1, 0, 0)
	if b < 0 || b >= 360 {
		t.Errorf("bearing out of range [0,360): %v", b)
	}
}

func TestPointToSegmentDistMidpoint(t *testing.T) {
	// Point directly above the segment's midpoint.
	dist, ratio := PointToSegmentDist(1.001, 103.001, 1.0, 103.0, 1.0, 103.002)
	if !almostEqual(ratio, 0.5, 0.2) {
		t.Errorf("ratio = %v, want ~0.5", ratio)
	}
	if dist <= 0 {
		t.Errorf("dist = %v, want > 0", dist)
	}
}

func TestPointToSegmentDistClampsRatio(t *testing.T) {
	_, ratio := PointToSegmentDist(1.0, 102.9, 1.0, 103.0, 1.0, 103.01)
	if ratio != 0 {
		t.Errorf("ratio = %v, want 0 (clamped before A)", ratio)
	}

	_, ratio = PointToSegmentDist(1.0, 103.2, 1.0, 103.0, 1.0, 103.01)
	if ratio != 1 {
		t.Errorf("ratio = %v, want 1 (clamped after B)", ratio)
	}
}

func TestPointToSegmentDistDegenerate(t *testing.T) {
	dist, ratio := PointToSegmentDist(1.001, 103.001, 1.0, 103.0, 1.0, 103.0)
	if ratio != 0 {
		t.Errorf("ratio = %v, want 0 for degenerate segment", ratio)
	}
	want := Haversine(1.001, 103.001, 1.0, 103.0)
	if !almostEqual(dist, want, 1e-6) {
		t.Errorf("dist = %v, want %v", dist, want)
	}
}

func TestAngleDiffWrap(t *testing.T) {
	tests := []struct{ a, b, want float64 }{
		{350, 10, 20},
		{10, 350, -20},
		{0, 180, 180},
		{180, 0, 180},
		{0, 0, 0},
	}
	for _, tt := range tests {
		got := AngleDiff(tt.a, tt.b)
		if !almostEqual(got, tt.want, 0.001) {
			t.Errorf("AngleDiff(%v,%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
