package qp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// rcond is the relative singular value threshold used for rank decisions
const rcond = 1e-12

// NNLS solves min ||E x - f|| subject to x >= 0 with the Lawson-Hanson
// active set method. It returns the solution and the number of iterations.
//
// References:
//   - Lawson, Hanson: "Solving Least Squares Problems", chapter 23 (1974)
func NNLS(e *mat.Dense, f []float64, maxIterations int) ([]float64, int, error) {
	m, n := e.Dims()
	if len(f) != m {
		panic("qp: NNLS dimension mismatch")
	}

	x := make([]float64, n)
	passive := make([]bool, n)
	// columns whose last entry attempt produced a non-positive coefficient,
	// skipped until the passive set changes
	skip := make([]bool, n)

	tolerance := 10 * 2.220446049250313e-16 * mat.Norm(e, 1) * float64(max(m, n))

	fv := mat.NewVecDense(m, f)
	residual := mat.NewVecDense(m, nil)
	gradient := mat.NewVecDense(n, nil)

	iterations := 0
	for iterations < maxIterations {
		// gradient = E^T (f - E x)
		residual.MulVec(e, mat.NewVecDense(n, x))
		residual.SubVec(fv, residual)
		gradient.MulVec(e.T(), residual)

		t := -1
		best := tolerance
		for j := 0; j < n; j++ {
			if passive[j] || skip[j] {
				continue
			}
			if g := gradient.AtVec(j); g > best {
				best = g
				t = j
			}
		}
		if t == -1 {
			return x, iterations, nil
		}

		passive[t] = true
		first := true

		for iterations < maxIterations {
			iterations++

			idx := indices(passive)
			z := leastSquares(e, idx, f)

			feasible := true
			for k := range idx {
				if z[k] <= 0 {
					feasible = false
					break
				}
			}
			if feasible {
				for k, j := range idx {
					x[j] = z[k]
				}
				if passive[t] {
					clear(skip)
				}
				break
			}

			// the column just entered cannot carry a positive coefficient
			if first && onlyEnteredNonPositive(z, idx, t) {
				passive[t] = false
				skip[t] = true
				break
			}

			// Step toward z until the first passive coefficient hits zero
			alpha := math.Inf(1)
			for k, j := range idx {
				if z[k] <= 0 {
					if a := x[j] / (x[j] - z[k]); a < alpha {
						alpha = a
					}
				}
			}
			for k, j := range idx {
				x[j] += alpha * (z[k] - x[j])
				if x[j] <= tolerance {
					x[j] = 0
					passive[j] = false
				}
			}
			if first && !passive[t] {
				skip[t] = true
			}
			first = false
		}
	}

	return x, iterations, ErrMaxIterations
}

// onlyEnteredNonPositive reports whether t is the only passive column whose
// coefficient in z is non-positive
func onlyEnteredNonPositive(z []float64, idx []int, t int) bool {
	for k, j := range idx {
		if j != t && z[k] <= 0 {
			return false
		}
	}
	return true
}

func indices(set []bool) []int {
	idx := make([]int, 0, len(set))
	for j, in := range set {
		if in {
			idx = append(idx, j)
		}
	}
	return idx
}

// leastSquares returns the minimum norm solution of min ||E[:, idx] z - f||
func leastSquares(e *mat.Dense, idx []int, f []float64) []float64 {
	m, _ := e.Dims()
	z := make([]float64, len(idx))
	if len(idx) == 0 {
		return z
	}

	sub := mat.NewDense(m, len(idx), nil)
	for k, j := range idx {
		for i := 0; i < m; i++ {
			sub.Set(i, k, e.At(i, j))
		}
	}

	return minNormSolve(sub, f, z)
}

// minNormSolve writes into dst the minimum norm least squares solution of
// a x = b and returns it. dst is left at zero when a has rank 0.
func minNormSolve(a *mat.Dense, b []float64, dst []float64) []float64 {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return dst
	}
	rank := svd.Rank(rcond)
	if rank == 0 {
		return dst
	}

	out := mat.NewVecDense(len(dst), dst)
	svd.SolveVecTo(out, mat.NewVecDense(len(b), b), rank)
	return dst
}
