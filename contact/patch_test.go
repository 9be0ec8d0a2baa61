package contact

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func satisfies(rows [][WeightsSize]float64, w [WeightsSize]float64) bool {
	for _, r := range rows {
		s := 0.0
		for k := range r {
			s += r[k] * w[k]
		}
		if s > 1e-12 {
			return false
		}
	}
	return true
}

func TestRectangle_Inequalities(t *testing.T) {
	r := Rectangle{HalfLength: 0.1, HalfWidth: 0.05}
	rows := r.Inequalities(0.3, 0.4)

	if len(rows) != 11 {
		t.Fatalf("len(Inequalities()) = %d, want 11", len(rows))
	}

	tests := []struct {
		name   string
		wrench [WeightsSize]float64
		valid  bool
	}{
		{"pure vertical load", [6]float64{0, 0, 100, 0, 0, 0}, true},
		{"zero wrench", [6]float64{0, 0, 0, 0, 0, 0}, true},
		{"pulling on the ground", [6]float64{0, 0, -1, 0, 0, 0}, false},
		{"friction at the limit", [6]float64{30, -30, 100, 0, 0, 0}, true},
		{"slipping along x", [6]float64{31, 0, 100, 0, 0, 0}, false},
		{"slipping along y", [6]float64{0, -31, 100, 0, 0, 0}, false},
		{"torsion inside", [6]float64{0, 0, 100, 0, 0, 39}, true},
		{"torsion outside", [6]float64{0, 0, 100, 0, 0, -41}, false},
		{"CoP on the lateral edge", [6]float64{0, 0, 100, 5, 0, 0}, true},
		{"CoP beyond the lateral edge", [6]float64{0, 0, 100, 5.1, 0, 0}, false},
		{"CoP on the toe", [6]float64{0, 0, 100, 0, -10, 0}, true},
		{"CoP beyond the heel", [6]float64{0, 0, 100, 0, 10.1, 0}, false},
		{"moment without load", [6]float64{0, 0, 0, 1, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := satisfies(rows, tt.wrench); got != tt.valid {
				t.Errorf("wrench %v valid = %v, want %v", tt.wrench, got, tt.valid)
			}
		})
	}
}

func TestRectangle_Contains(t *testing.T) {
	r := Rectangle{HalfLength: 0.1, HalfWidth: 0.05}

	tests := []struct {
		name     string
		cop      mgl64.Vec2
		expected bool
	}{
		{"center", mgl64.Vec2{0, 0}, true},
		{"corner", mgl64.Vec2{0.1, -0.05}, true},
		{"outside length", mgl64.Vec2{0.11, 0}, false},
		{"outside width", mgl64.Vec2{0, -0.06}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.cop, 1e-12); got != tt.expected {
				t.Errorf("Contains(%v) = %v, want %v", tt.cop, got, tt.expected)
			}
		})
	}
}

func TestRectangle_Vertices(t *testing.T) {
	r := Rectangle{HalfLength: 0.1, HalfWidth: 0.05}
	vertices := r.Vertices()

	if len(vertices) != 4 {
		t.Fatalf("len(Vertices()) = %d, want 4", len(vertices))
	}
	for _, v := range vertices {
		if !r.Contains(mgl64.Vec2{v.X(), v.Y()}, 1e-12) {
			t.Errorf("vertex %v outside its own patch", v)
		}
		if v.Z() != 0 {
			t.Errorf("vertex %v not on the sole plane", v)
		}
	}
	if !r.SupportsTorque() {
		t.Error("a rectangle supports torque")
	}
	if PatchTypeRectangle.String() != "rectangle" {
		t.Errorf("String() = %q", PatchTypeRectangle.String())
	}
}
