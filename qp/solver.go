// Package qp solves small dense strictly convex quadratic programs
//
//	minimize    ½ xᵀ H x + gᵀ x
//	subject to  Aeq x  = beq
//	            Cin x <= din
//
// The problem is reduced to a least distance program (Cholesky change of
// variables, then elimination of the equalities on the null space of Aeq)
// which is solved through its non-negative least squares dual. Infeasibility
// is reported explicitly with ErrInfeasible, never approximated.
package qp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultTolerance     = 1e-9
	DefaultMaxIterations = 1000
)

var (
	ErrInfeasible     = errors.New("qp: infeasible problem")
	ErrMaxIterations  = errors.New("qp: maximum iterations reached")
	ErrNotConvex      = errors.New("qp: hessian is not positive definite")
	ErrInvalidProblem = errors.New("qp: invalid problem")
)

// Problem is a dense quadratic program. Aeq and Cin may be nil when the
// problem has no equality or no inequality.
type Problem struct {
	Hessian *mat.SymDense
	Linear  []float64

	Aeq *mat.Dense
	Beq []float64

	Cin *mat.Dense
	Din []float64
}

type Result struct {
	X []float64
	// Active holds the indices of the inequality rows binding at X
	Active     []int
	Iterations int
}

// Solver holds the tuning of the solve; the zero value uses the defaults
type Solver struct {
	// Tolerance on constraint satisfaction, relative to the largest
	// magnitude among Linear, Beq and Din
	Tolerance     float64
	MaxIterations int
}

func (s Solver) tolerance() float64 {
	if s.Tolerance > 0 {
		return s.Tolerance
	}
	return DefaultTolerance
}

func (s Solver) maxIterations() int {
	if s.MaxIterations > 0 {
		return s.MaxIterations
	}
	return DefaultMaxIterations
}

// Solve returns the unique minimizer of the problem
func (s Solver) Solve(p Problem) (Result, error) {
	n, me, mi, err := p.dims()
	if err != nil {
		return Result{}, err
	}
	tol := s.tolerance()

	// Work on a problem whose data is of unit magnitude
	scale := math.Max(maxAbs(p.Linear), math.Max(maxAbs(p.Beq), maxAbs(p.Din)))
	if scale == 0 {
		scale = 1
	}
	g := scaled(p.Linear, n, scale)
	b := scaled(p.Beq, me, scale)
	d := scaled(p.Din, mi, scale)

	// H = L Lᵀ, x = L⁻ᵀ y turns the objective into ½‖y - y0‖²
	var chol mat.Cholesky
	if !chol.Factorize(p.Hessian) {
		return Result{}, ErrNotConvex
	}
	var l, lInv mat.TriDense
	chol.LTo(&l)
	if err := lInv.InverseTri(&l); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNotConvex, err)
	}
	t := mat.NewDense(n, n, nil)
	t.CloneFrom(lInv.T())

	y0 := mat.NewVecDense(n, nil)
	y0.MulVec(&lInv, mat.NewVecDense(n, g))
	y0.ScaleVec(-1, y0)

	var aT, cT *mat.Dense
	if me > 0 {
		aT = mat.NewDense(me, n, nil)
		aT.Mul(p.Aeq, t)
	}
	if mi > 0 {
		cT = mat.NewDense(mi, n, nil)
		cT.Mul(p.Cin, t)
	}

	yp, z, err := eliminate(aT, b, n, tol)
	if err != nil {
		return Result{}, err
	}

	// Closest point to y0 on the equality manifold, in null space coordinates
	_, nz := z.Dims()
	y := mat.NewVecDense(n, nil)
	y.CopyVec(yp)
	if nz > 0 {
		diff := mat.NewVecDense(n, nil)
		diff.SubVec(y0, yp)
		z0 := mat.NewVecDense(nz, nil)
		z0.MulVec(z.T(), diff)

		y.MulVec(z, z0)
		y.AddVec(y, yp)
	}

	iterations := 0
	if mi > 0 {
		u, it, err := s.leastDistance(cT, d, y, z, tol)
		iterations = it
		if err != nil {
			return Result{Iterations: iterations}, err
		}
		if u != nil {
			step := mat.NewVecDense(n, nil)
			step.MulVec(z, u)
			y.AddVec(y, step)
		}
		if violation(cT, d, y) > tol {
			return Result{Iterations: iterations}, fmt.Errorf("%w: inequality violated by %g", ErrInfeasible, violation(cT, d, y)*scale)
		}
		y = polish(aT, b, cT, d, y0, y, tol)
	}

	x := mat.NewVecDense(n, nil)
	x.MulVec(t, y)
	x.ScaleVec(scale, x)

	return Result{
		X:          x.RawVector().Data,
		Active:     active(cT, d, y, tol),
		Iterations: iterations,
	}, nil
}

func (p Problem) dims() (n, me, mi int, err error) {
	if p.Hessian == nil {
		return 0, 0, 0, fmt.Errorf("%w: missing hessian", ErrInvalidProblem)
	}
	n = p.Hessian.SymmetricDim()
	if n == 0 {
		return 0, 0, 0, fmt.Errorf("%w: empty problem", ErrInvalidProblem)
	}
	if p.Linear != nil && len(p.Linear) != n {
		return 0, 0, 0, fmt.Errorf("%w: linear term has %d values, want %d", ErrInvalidProblem, len(p.Linear), n)
	}
	if p.Aeq != nil {
		r, c := p.Aeq.Dims()
		if c != n || len(p.Beq) != r {
			return 0, 0, 0, fmt.Errorf("%w: equality is %dx%d with %d values, want %d columns", ErrInvalidProblem, r, c, len(p.Beq), n)
		}
		me = r
	}
	if p.Cin != nil {
		r, c := p.Cin.Dims()
		if c != n || len(p.Din) != r {
			return 0, 0, 0, fmt.Errorf("%w: inequality is %dx%d with %d values, want %d columns", ErrInvalidProblem, r, c, len(p.Din), n)
		}
		mi = r
	}
	return n, me, mi, nil
}

// eliminate returns the minimum norm solution yp of a y = b and an
// orthonormal basis z of the null space of a. a may be nil.
func eliminate(a *mat.Dense, b []float64, n int, tol float64) (*mat.VecDense, *mat.Dense, error) {
	yp := mat.NewVecDense(n, nil)
	if a == nil {
		z := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			z.Set(i, i, 1)
		}
		return yp, z, nil
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, nil, fmt.Errorf("%w: singular value decomposition failed", ErrInvalidProblem)
	}
	rank := svd.Rank(rcond)
	if rank > 0 {
		minNormSolve(a, b, yp.RawVector().Data)
	}

	residual := mat.NewVecDense(len(b), nil)
	residual.MulVec(a, yp)
	residual.SubVec(residual, mat.NewVecDense(len(b), b))
	if r := mat.Norm(residual, math.Inf(1)); r > tol {
		return nil, nil, fmt.Errorf("%w: inconsistent equalities, residual %g", ErrInfeasible, r)
	}

	if rank == n {
		return yp, &mat.Dense{}, nil
	}
	var v mat.Dense
	svd.VTo(&v)
	z := mat.DenseCopyOf(v.Slice(0, n, rank, n))
	return yp, z, nil
}

// leastDistance finds the smallest step u such that y + Z u satisfies
// C (y + Z u) <= d. It returns a nil step when y already satisfies them.
func (s Solver) leastDistance(c *mat.Dense, d []float64, y *mat.VecDense, z *mat.Dense, tol float64) (*mat.VecDense, int, error) {
	mi, _ := c.Dims()

	// G u >= h with G = -C Z and h = C y - d
	h := make([]float64, mi)
	cy := mat.NewVecDense(mi, nil)
	cy.MulVec(c, y)
	satisfied := true
	for i := range h {
		h[i] = cy.AtVec(i) - d[i]
		if h[i] > 0 {
			satisfied = false
		}
	}
	if satisfied {
		return nil, 0, nil
	}

	_, nz := z.Dims()
	if nz == 0 {
		for i := range h {
			if h[i] > tol {
				return nil, 0, fmt.Errorf("%w: equalities leave no freedom for inequality %d", ErrInfeasible, i)
			}
		}
		return nil, 0, nil
	}

	cz := mat.NewDense(mi, nz, nil)
	cz.Mul(c, z)

	// Dual: min ‖E w - f‖, w >= 0, E = [Gᵀ; hᵀ], f = (0, ..., 0, 1)
	e := mat.NewDense(nz+1, mi, nil)
	for i := 0; i < mi; i++ {
		for j := 0; j < nz; j++ {
			e.Set(j, i, -cz.At(i, j))
		}
		e.Set(nz, i, h[i])
	}
	f := make([]float64, nz+1)
	f[nz] = 1

	w, iterations, err := NNLS(e, f, s.maxIterations())
	if err != nil {
		return nil, iterations, err
	}

	r := mat.NewVecDense(nz+1, nil)
	r.MulVec(e, mat.NewVecDense(mi, w))
	r.SubVec(r, mat.NewVecDense(nz+1, f))

	last := r.AtVec(nz)
	if -last <= rcond {
		return nil, iterations, fmt.Errorf("%w: inequalities are incompatible", ErrInfeasible)
	}

	u := mat.NewVecDense(nz, nil)
	for j := 0; j < nz; j++ {
		u.SetVec(j, -r.AtVec(j)/last)
	}
	return u, iterations, nil
}

// polish projects y0 on the constraints binding at y. The projection is
// kept when it stays feasible, which makes it the exact minimizer.
func polish(a *mat.Dense, b []float64, c *mat.Dense, d []float64, y0, y *mat.VecDense, tol float64) *mat.VecDense {
	n := y.Len()
	rows := active(c, d, y, tol)

	me := 0
	if a != nil {
		me, _ = a.Dims()
	}
	if me+len(rows) == 0 {
		return y
	}

	m := mat.NewDense(me+len(rows), n, nil)
	rhs := make([]float64, me+len(rows))
	for i := 0; i < me; i++ {
		m.SetRow(i, a.RawRowView(i))
		rhs[i] = b[i]
	}
	for k, i := range rows {
		m.SetRow(me+k, c.RawRowView(i))
		rhs[me+k] = d[i]
	}

	// y* = y0 + M⁺ (rhs - M y0)
	my0 := mat.NewVecDense(len(rhs), nil)
	my0.MulVec(m, y0)
	for i := range rhs {
		rhs[i] -= my0.AtVec(i)
	}
	delta := minNormSolve(m, rhs, make([]float64, n))

	candidate := mat.NewVecDense(n, nil)
	candidate.AddVec(y0, mat.NewVecDense(n, delta))

	if violation(c, d, candidate) > tol {
		return y
	}
	if a != nil && equalityResidual(a, b, candidate) > math.Max(equalityResidual(a, b, y), tol) {
		return y
	}
	return candidate
}

// active returns the rows of c y <= d binding within tol
func active(c *mat.Dense, d []float64, y *mat.VecDense, tol float64) []int {
	if c == nil {
		return nil
	}
	mi, _ := c.Dims()
	cy := mat.NewVecDense(mi, nil)
	cy.MulVec(c, y)

	var rows []int
	for i := 0; i < mi; i++ {
		if cy.AtVec(i)-d[i] >= -tol {
			rows = append(rows, i)
		}
	}
	return rows
}

// violation returns max(0, max_i (c y - d)_i)
func violation(c *mat.Dense, d []float64, y *mat.VecDense) float64 {
	mi, _ := c.Dims()
	cy := mat.NewVecDense(mi, nil)
	cy.MulVec(c, y)

	worst := 0.0
	for i := 0; i < mi; i++ {
		worst = math.Max(worst, cy.AtVec(i)-d[i])
	}
	return worst
}

func equalityResidual(a *mat.Dense, b []float64, y *mat.VecDense) float64 {
	me, _ := a.Dims()
	ay := mat.NewVecDense(me, nil)
	ay.MulVec(a, y)

	worst := 0.0
	for i := 0; i < me; i++ {
		worst = math.Max(worst, math.Abs(ay.AtVec(i)-b[i]))
	}
	return worst
}

func maxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return m
}

// scaled returns v / scale, or n zeros when v is nil
func scaled(v []float64, n int, scale float64) []float64 {
	out := make([]float64, n)
	for i := range v {
		out[i] = v[i] / scale
	}
	return out
}
