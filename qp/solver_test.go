package qp

import (
	"errors"
	"math"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

func slicesAlmostEqual(a, b []float64, epsilon float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !almostEqual(a[i], b[i], epsilon) {
			return false
		}
	}
	return true
}

func diag(values ...float64) *mat.SymDense {
	h := mat.NewSymDense(len(values), nil)
	for i, v := range values {
		h.SetSym(i, i, v)
	}
	return h
}

// =============================================================================
// NNLS Tests
// =============================================================================

func TestNNLS(t *testing.T) {
	tests := []struct {
		name     string
		e        *mat.Dense
		f        []float64
		expected []float64
	}{
		{
			name:     "identity drops the negative component",
			e:        mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
			f:        []float64{1, -1},
			expected: []float64{1, 0},
		},
		{
			name:     "coupled column stays at the bound",
			e:        mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1}),
			f:        []float64{1, -2, 0},
			expected: []float64{0.5, 0},
		},
		{
			name:     "unconstrained optimum is positive",
			e:        mat.NewDense(2, 2, []float64{2, 0, 0, 4}),
			f:        []float64{2, 2},
			expected: []float64{1, 0.5},
		},
		{
			name:     "zero right hand side",
			e:        mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
			f:        []float64{0, 0},
			expected: []float64{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, _, err := NNLS(tt.e, tt.f, DefaultMaxIterations)
			if err != nil {
				t.Fatalf("NNLS() error = %v", err)
			}
			if !slicesAlmostEqual(x, tt.expected, 1e-12) {
				t.Errorf("NNLS() = %v, want %v", x, tt.expected)
			}
		})
	}
}

func TestNNLS_MaxIterations(t *testing.T) {
	e := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	_, _, err := NNLS(e, []float64{1, 1}, 1)
	if !errors.Is(err, ErrMaxIterations) {
		t.Errorf("NNLS() error = %v, want ErrMaxIterations", err)
	}
}

// =============================================================================
// Solve Tests
// =============================================================================

func TestSolver_Solve(t *testing.T) {
	tests := []struct {
		name     string
		problem  Problem
		expected []float64
		active   []int
	}{
		{
			name: "unconstrained",
			problem: Problem{
				Hessian: diag(2, 4),
				Linear:  []float64{-2, -4},
			},
			expected: []float64{1, 1},
		},
		{
			name: "equality only",
			problem: Problem{
				Hessian: diag(1, 1),
				Aeq:     mat.NewDense(1, 2, []float64{1, 1}),
				Beq:     []float64{2},
			},
			expected: []float64{1, 1},
		},
		{
			name: "weighted equality",
			problem: Problem{
				Hessian: diag(1, 4),
				Aeq:     mat.NewDense(1, 2, []float64{1, 1}),
				Beq:     []float64{5},
			},
			expected: []float64{4, 1},
		},
		{
			name: "binding inequality",
			problem: Problem{
				Hessian: diag(1, 1),
				Linear:  []float64{-2, 0},
				Cin:     mat.NewDense(1, 2, []float64{1, 0}),
				Din:     []float64{1},
			},
			expected: []float64{1, 0},
			active:   []int{0},
		},
		{
			name: "slack inequality",
			problem: Problem{
				Hessian: diag(1, 1),
				Linear:  []float64{-2, 0},
				Cin:     mat.NewDense(1, 2, []float64{1, 0}),
				Din:     []float64{5},
			},
			expected: []float64{2, 0},
		},
		{
			name: "equality and binding inequality",
			problem: Problem{
				Hessian: diag(1, 1),
				Aeq:     mat.NewDense(1, 2, []float64{1, 1}),
				Beq:     []float64{2},
				Cin:     mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Din:     []float64{0.5, 10},
			},
			expected: []float64{0.5, 1.5},
			active:   []int{0},
		},
		{
			name: "large magnitudes",
			problem: Problem{
				Hessian: diag(1, 1),
				Linear:  []float64{-2e4, 0},
				Cin:     mat.NewDense(1, 2, []float64{1, 0}),
				Din:     []float64{1e4},
			},
			expected: []float64{1e4, 0},
			active:   []int{0},
		},
		{
			name: "redundant equalities",
			problem: Problem{
				Hessian: diag(1, 1),
				Aeq:     mat.NewDense(2, 2, []float64{1, 1, 2, 2}),
				Beq:     []float64{2, 4},
			},
			expected: []float64{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Solver{}.Solve(tt.problem)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			scale := math.Max(1, math.Abs(tt.expected[0]))
			if !slicesAlmostEqual(result.X, tt.expected, 1e-9*scale) {
				t.Errorf("Solve() X = %v, want %v", result.X, tt.expected)
			}
			if !slices.Equal(result.Active, tt.active) {
				t.Errorf("Solve() Active = %v, want %v", result.Active, tt.active)
			}
		})
	}
}

func TestSolver_SolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		problem Problem
		want    error
	}{
		{
			name: "opposite bounds",
			problem: Problem{
				Hessian: diag(1, 1),
				Cin:     mat.NewDense(2, 2, []float64{1, 0, -1, 0}),
				Din:     []float64{-1, -1},
			},
			want: ErrInfeasible,
		},
		{
			name: "inconsistent equalities",
			problem: Problem{
				Hessian: diag(1, 1),
				Aeq:     mat.NewDense(2, 2, []float64{1, 1, 1, 1}),
				Beq:     []float64{1, 2},
			},
			want: ErrInfeasible,
		},
		{
			name: "determined equalities violate a bound",
			problem: Problem{
				Hessian: diag(1, 1),
				Aeq:     mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Beq:     []float64{1, 1},
				Cin:     mat.NewDense(1, 2, []float64{1, 0}),
				Din:     []float64{0},
			},
			want: ErrInfeasible,
		},
		{
			name:    "indefinite hessian",
			problem: Problem{Hessian: diag(1, -1)},
			want:    ErrNotConvex,
		},
		{
			name:    "missing hessian",
			problem: Problem{},
			want:    ErrInvalidProblem,
		},
		{
			name: "mismatched equality",
			problem: Problem{
				Hessian: diag(1, 1),
				Aeq:     mat.NewDense(1, 3, []float64{1, 1, 1}),
				Beq:     []float64{1},
			},
			want: ErrInvalidProblem,
		},
		{
			name: "mismatched linear term",
			problem: Problem{
				Hessian: diag(1, 1),
				Linear:  []float64{1},
			},
			want: ErrInvalidProblem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solver{}.Solve(tt.problem)
			if !errors.Is(err, tt.want) {
				t.Errorf("Solve() error = %v, want %v", err, tt.want)
			}
		})
	}
}

// The solution must satisfy the KKT conditions of a random feasible problem
func TestSolver_SolveKKT(t *testing.T) {
	h := mat.NewSymDense(4, []float64{
		4, 1, 0, 0,
		1, 3, 0.5, 0,
		0, 0.5, 2, 0,
		0, 0, 0, 1,
	})
	g := []float64{1, -2, 0.5, -1}
	aeq := mat.NewDense(1, 4, []float64{1, 1, 1, 1})
	beq := []float64{1}
	cin := mat.NewDense(4, 4, []float64{
		-1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, -1, 0,
		0, 0, 0, -1,
	})
	din := []float64{0, 0, 0, 0}

	result, err := Solver{}.Solve(Problem{Hessian: h, Linear: g, Aeq: aeq, Beq: beq, Cin: cin, Din: din})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	x := result.X

	sum := 0.0
	for _, v := range x {
		sum += v
		if v < -1e-12 {
			t.Errorf("x = %v violates x >= 0", x)
		}
	}
	if !almostEqual(sum, 1, 1e-12) {
		t.Errorf("sum(x) = %v, want 1", sum)
	}

	// On the free coordinates the gradient must be equal to the equality
	// multiplier, and no smaller on the bound ones
	grad := mat.NewVecDense(4, nil)
	grad.MulVec(h, mat.NewVecDense(4, x))
	grad.AddVec(grad, mat.NewVecDense(4, g))

	lambda := math.NaN()
	for i, v := range x {
		if v > 1e-9 {
			if math.IsNaN(lambda) {
				lambda = grad.AtVec(i)
			} else if !almostEqual(grad.AtVec(i), lambda, 1e-8) {
				t.Errorf("gradient %v not constant on the free coordinates of %v", grad.RawVector().Data, x)
			}
		}
	}
	for i, v := range x {
		if v <= 1e-9 && grad.AtVec(i) < lambda-1e-8 {
			t.Errorf("coordinate %d at the bound could decrease the objective: gradient %v", i, grad.RawVector().Data)
		}
	}
}
