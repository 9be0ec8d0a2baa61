package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func randomTransform(rng *rand.Rand) Transform {
	axis := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}.Normalize()
	angle := (rng.Float64()*2 - 1) * math.Pi
	return Transform{
		Rotation:    AxisAngle(axis, angle),
		Translation: mgl64.Vec3{rng.Float64()*4 - 2, rng.Float64()*4 - 2, rng.Float64()*4 - 2},
	}
}

func randomWrench(rng *rand.Rand) Wrench {
	return Wrench{
		Force:  mgl64.Vec3{rng.NormFloat64() * 100, rng.NormFloat64() * 100, rng.NormFloat64() * 1000},
		Torque: mgl64.Vec3{rng.NormFloat64() * 10, rng.NormFloat64() * 10, rng.NormFloat64() * 10},
	}
}

// =============================================================================
// Adjoint Tests
// =============================================================================

func TestActWrench(t *testing.T) {
	tests := []struct {
		name      string
		transform Transform
		local     Wrench
		expected  Wrench
	}{
		{
			name:      "vertical force offset along y creates roll torque",
			transform: Translation(mgl64.Vec3{0, 1, 0}),
			local:     Wrench{Force: mgl64.Vec3{0, 0, 1}},
			expected:  Wrench{Force: mgl64.Vec3{0, 0, 1}, Torque: mgl64.Vec3{1, 0, 0}},
		},
		{
			name:      "pure torque is only rotated",
			transform: NewTransform(mgl64.Rotate3DY(0.3), mgl64.Vec3{0, 1, 0}),
			local:     Wrench{Torque: mgl64.Vec3{1, 0, 0}},
			expected:  Wrench{Torque: mgl64.Rotate3DY(0.3).Mul3x1(mgl64.Vec3{1, 0, 0})},
		},
		{
			name:      "identity leaves the wrench untouched",
			transform: Identity(),
			local:     Wrench{Force: mgl64.Vec3{1, 2, 3}, Torque: mgl64.Vec3{4, 5, 6}},
			expected:  Wrench{Force: mgl64.Vec3{1, 2, 3}, Torque: mgl64.Vec3{4, 5, 6}},
		},
		{
			name:      "support below the center of mass",
			transform: Translation(mgl64.Vec3{0, 0.2, -1}),
			local:     Wrench{Force: mgl64.Vec3{0, 0, 10000}},
			expected:  Wrench{Force: mgl64.Vec3{0, 0, 10000}, Torque: mgl64.Vec3{2000, 0, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.transform.ActWrench(tt.local)
			if !result.ApproxEqual(tt.expected, 1e-12) {
				t.Errorf("ActWrench() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestActWrench_InverseRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		h := randomTransform(rng)
		w := randomWrench(rng)

		back := h.Inverse().ActWrench(h.ActWrench(w))
		if !back.ApproxEqual(w, 1e-9) {
			t.Fatalf("iteration %d: transform(inverse(H), transform(H, w)) = %v, want %v", i, back, w)
		}

		back = h.ActInvWrench(h.ActWrench(w))
		if !back.ApproxEqual(w, 1e-9) {
			t.Fatalf("iteration %d: ActInvWrench(ActWrench(w)) = %v, want %v", i, back, w)
		}
	}
}

func TestActWrench_Composition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		a := randomTransform(rng)
		b := randomTransform(rng)
		w := randomWrench(rng)

		chained := a.ActWrench(b.ActWrench(w))
		composed := a.Compose(b).ActWrench(w)
		if !chained.ApproxEqual(composed, 1e-9) {
			t.Fatalf("iteration %d: a(b(w)) = %v, (a*b)(w) = %v", i, chained, composed)
		}
	}
}

func TestAdjointMatrix_MatchesActWrench(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 20; i++ {
		h := randomTransform(rng)
		w := randomWrench(rng)

		v := w.Vector()
		var out mat.VecDense
		out.MulVec(h.AdjointMatrix(), mat.NewVecDense(6, v[:]))

		expected := h.ActWrench(w).Vector()
		for k := 0; k < 6; k++ {
			if !almostEqual(out.AtVec(k), expected[k], 1e-9) {
				t.Fatalf("iteration %d: component %d = %v, want %v", i, k, out.AtVec(k), expected[k])
			}
		}
	}
}

func TestWrench_VectorLayout(t *testing.T) {
	w := WrenchFromVector([6]float64{1, 2, 3, 4, 5, 6})

	if w.Force != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("Force = %v, want [1 2 3]", w.Force)
	}
	if w.Torque != (mgl64.Vec3{4, 5, 6}) {
		t.Errorf("Torque = %v, want [4 5 6]", w.Torque)
	}
	if w.Vector() != [6]float64{1, 2, 3, 4, 5, 6} {
		t.Errorf("Vector() = %v", w.Vector())
	}
	if w.MaxAbs() != 6 {
		t.Errorf("MaxAbs() = %v, want 6", w.MaxAbs())
	}
}

func TestWrench_NonFinite(t *testing.T) {
	tests := []struct {
		name       string
		wrench     Wrench
		wantNaN    bool
		wantFinite bool
	}{
		{"finite", WrenchFromVector([6]float64{-7, 2, 3, 4, 5, 6}), false, true},
		{"NaN force", WrenchFromVector([6]float64{math.NaN(), 2, 3, 4, 5, 6}), true, false},
		{"NaN last torque", WrenchFromVector([6]float64{100, 2, 3, 4, 5, math.NaN()}), true, false},
		{"infinite torque", WrenchFromVector([6]float64{1, 2, 3, math.Inf(-1), 5, 6}), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := math.IsNaN(tt.wrench.MaxAbs()); got != tt.wantNaN {
				t.Errorf("MaxAbs() = %v, want NaN %v", tt.wrench.MaxAbs(), tt.wantNaN)
			}
			if got := tt.wrench.IsFinite(); got != tt.wantFinite {
				t.Errorf("IsFinite() = %v, want %v", got, tt.wantFinite)
			}
			if tt.wantNaN && tt.wrench.ApproxEqual(tt.wrench, 1) {
				t.Error("ApproxEqual() = true for a NaN wrench")
			}
		})
	}
}
