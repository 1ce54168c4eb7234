package predictor

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	tau = 1e-12
	// Above this many rows kernel values are computed per iteration instead
	// of held in a dense matrix.
	maxCachedKernelRows = 4096
)

// rbfKernel evaluates exp(-gamma*||a-b||^2) over the training rows.
type rbfKernel struct {
	gamma float64
	x     [][]float64
	gram  *mat.SymDense
}

func newRBFKernel(x [][]float64, gamma float64) *rbfKernel {
	k := &rbfKernel{gamma: gamma, x: x}
	if n := len(x); n <= maxCachedKernelRows {
		k.gram = mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				k.gram.SetSym(i, j, k.eval(x[i], x[j]))
			}
		}
	}
	return k
}

func (k *rbfKernel) eval(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return math.Exp(-k.gamma * d * d)
}

// row fills dst with K(x_i, x_j) for every training row j.
func (k *rbfKernel) row(i int, dst []float64) {
	if k.gram != nil {
		for j := range dst {
			dst[j] = k.gram.At(i, j)
		}
		return
	}
	for j := range dst {
		dst[j] = k.eval(k.x[i], k.x[j])
	}
}

// svrModel is a fitted epsilon-SVR decision function.
type svrModel struct {
	gamma   float64
	support [][]float64
	coef    []float64
	rho     float64
	iters   int
}

func (m *svrModel) predict(x []float64) float64 {
	sum := 0.0
	for i, sv := range m.support {
		d := floats.Distance(sv, x, 2)
		sum += m.coef[i] * math.Exp(-m.gamma*d*d)
	}
	return sum - m.rho
}

// fitSVR solves the epsilon-SVR dual with sequential minimal optimization
// using second order working set selection. The problem is expanded to 2l
// variables: alpha[i] with y=+1 and alpha[i+l] with y=-1 for each sample i.
func fitSVR(x [][]float64, target []float64, p Params) *svrModel {
	l := len(x)
	n := 2 * l
	kernel := newRBFKernel(x, p.Gamma)

	alpha := make([]float64, n)
	y := make([]float64, n)
	grad := make([]float64, n)
	for i := 0; i < l; i++ {
		y[i] = 1
		y[i+l] = -1
		grad[i] = p.Epsilon - target[i]
		grad[i+l] = p.Epsilon + target[i]
	}

	atUpper := func(t int) bool { return alpha[t] >= p.C }
	atLower := func(t int) bool { return alpha[t] <= 0 }

	kI := make([]float64, l)
	kJ := make([]float64, l)
	// q returns Q(t, s) = y_t * y_s * K(t mod l, s mod l) given the kernel row of t.
	q := func(kRow []float64, t, s int) float64 {
		return y[t] * y[s] * kRow[s%l]
	}

	maxIter := 100 * l
	if maxIter < 10_000_000 {
		maxIter = 10_000_000
	}

	iter := 0
	for ; iter < maxIter; iter++ {
		i, j, ok := selectWorkingSet(grad, y, kernel, kI, l, atUpper, atLower, p.Tolerance)
		if !ok {
			break
		}
		kernel.row(j%l, kJ)

		oldI, oldJ := alpha[i], alpha[j]
		if y[i] != y[j] {
			quad := 2 + 2*q(kI, i, j)
			if quad <= 0 {
				quad = tau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > p.C {
					alpha[i] = p.C
					alpha[j] = p.C - diff
				}
			} else if alpha[j] > p.C {
				alpha[j] = p.C
				alpha[i] = p.C + diff
			}
		} else {
			quad := 2 - 2*q(kI, i, j)
			if quad <= 0 {
				quad = tau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > p.C {
				if alpha[i] > p.C {
					alpha[i] = p.C
					alpha[j] = sum - p.C
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > p.C {
				if alpha[j] > p.C {
					alpha[j] = p.C
					alpha[i] = sum - p.C
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			grad[t] += q(kI, i, t)*dI + q(kJ, j, t)*dJ
		}
	}

	m := &svrModel{
		gamma: p.Gamma,
		rho:   computeRho(grad, y, atUpper, atLower),
		iters: iter,
	}
	for i := 0; i < l; i++ {
		if c := alpha[i] - alpha[i+l]; c != 0 {
			m.support = append(m.support, x[i])
			m.coef = append(m.coef, c)
		}
	}
	return m
}

// selectWorkingSet picks the maximal violating i and the j with the largest
// second order decrease. It loads the kernel row of i into kI. ok is false once
// the duality gap is below tol.
func selectWorkingSet(grad, y []float64, kernel *rbfKernel, kI []float64, l int,
	atUpper, atLower func(int) bool, tol float64) (int, int, bool) {
	gMax, gMax2 := math.Inf(-1), math.Inf(-1)
	i := -1
	for t := range grad {
		if y[t] == 1 {
			if !atUpper(t) && -grad[t] >= gMax {
				gMax = -grad[t]
				i = t
			}
		} else if !atLower(t) && grad[t] >= gMax {
			gMax = grad[t]
			i = t
		}
	}
	if i != -1 {
		kernel.row(i%l, kI)
	}

	j := -1
	objMin := math.Inf(1)
	for t := range grad {
		if y[t] == 1 {
			if atLower(t) {
				continue
			}
			if grad[t] >= gMax2 {
				gMax2 = grad[t]
			}
			gradDiff := gMax + grad[t]
			if gradDiff > 0 {
				quad := 2 - 2*kI[t%l]
				if quad <= 0 {
					quad = tau
				}
				if obj := -(gradDiff * gradDiff) / quad; obj <= objMin {
					j = t
					objMin = obj
				}
			}
		} else {
			if atUpper(t) {
				continue
			}
			if -grad[t] >= gMax2 {
				gMax2 = -grad[t]
			}
			gradDiff := gMax - grad[t]
			if gradDiff > 0 {
				quad := 2 - 2*kI[t%l]
				if quad <= 0 {
					quad = tau
				}
				if obj := -(gradDiff * gradDiff) / quad; obj <= objMin {
					j = t
					objMin = obj
				}
			}
		}
	}

	if gMax+gMax2 < tol || j == -1 {
		return -1, -1, false
	}
	return i, j, true
}

func computeRho(grad, y []float64, atUpper, atLower func(int) bool) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	free, sumFree := 0, 0.0
	for t := range grad {
		yg := y[t] * grad[t]
		switch {
		case atUpper(t):
			if y[t] == -1 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case atLower(t):
			if y[t] == 1 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			free++
			sumFree += yg
		}
	}
	if free > 0 {
		return sumFree / float64(free)
	}
	return (ub + lb) / 2
}
