package solver

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Outcomes of a single LP solve. Infeasibility is proven by a positive
// phase-one optimum; anything the iteration machinery cannot finish
// cleanly is numerical trouble, never infeasibility.
var (
	errLPInfeasible  = errors.New("lp infeasible")
	errLPUnbounded   = errors.New("lp unbounded")
	errLPInterrupted = errors.New("lp interrupted")
	errLPNumerical   = errors.New("simplex stalled before reaching optimality")
)

const (
	simplexTol   = 1e-9
	simplexPivot = 1e-10
)

type colState int8

const (
	atLower colState = iota
	atUpper
	inBasis
)

// boundedSimplex is a two-phase primal simplex over
//
//	min c·x  subject to  Ax = b, l <= x <= u.
//
// Variable bounds stay out of the row space, so the planning models'
// thousands of finite bounds cost nothing per iteration. The basis is
// refactorized with gonum's LU every step and the basic values are
// recomputed from it, which keeps the iterate consistent without a
// factorization-update scheme.
type boundedSimplex struct {
	m, n int // constraint rows, structural columns
	cols [][]float64
	b    []float64
	l, u []float64
	x    []float64

	state []colState
	basis []int
	stop  func() bool

	bmat          *mat.Dense
	cb, y, w, rhs *mat.VecDense
	xb            *mat.VecDense
}

// solveBoundedLP minimizes c over the columns subject to equality rows
// b and the variable bounds. cols is column-major; every lower bound
// must be finite. stop is polled once per iteration and aborts the
// solve with errLPInterrupted.
func solveBoundedLP(c []float64, cols [][]float64, b, l, u []float64, stop func() bool) ([]float64, float64, error) {
	m, n := len(b), len(cols)
	if m == 0 {
		x := make([]float64, n)
		obj := 0.0
		for j := range x {
			if c[j] < 0 {
				if math.IsInf(u[j], 1) {
					return nil, 0, errLPUnbounded
				}
				x[j] = u[j]
			} else {
				x[j] = l[j]
			}
			obj += c[j] * x[j]
		}
		return x, obj, nil
	}

	total := n + m
	s := &boundedSimplex{
		m:     m,
		n:     n,
		cols:  make([][]float64, total),
		b:     b,
		l:     make([]float64, total),
		u:     make([]float64, total),
		x:     make([]float64, total),
		state: make([]colState, total),
		basis: make([]int, m),
		stop:  stop,
		bmat:  mat.NewDense(m, m, nil),
		cb:    mat.NewVecDense(m, nil),
		y:     mat.NewVecDense(m, nil),
		w:     mat.NewVecDense(m, nil),
		rhs:   mat.NewVecDense(m, nil),
		xb:    mat.NewVecDense(m, nil),
	}
	copy(s.cols, cols)
	copy(s.l, l)
	copy(s.u, u)
	for j := 0; j < n; j++ {
		s.x[j] = l[j]
		s.state[j] = atLower
	}

	// One artificial column per row absorbs the residual of the
	// all-at-lower-bound start with a nonnegative value.
	for i := 0; i < m; i++ {
		r := b[i]
		for j := 0; j < n; j++ {
			r -= cols[j][i] * s.x[j]
		}
		col := make([]float64, m)
		if r >= 0 {
			col[i] = 1
		} else {
			col[i] = -1
			r = -r
		}
		j := n + i
		s.cols[j] = col
		s.x[j] = r
		s.u[j] = math.Inf(1)
		s.state[j] = inBasis
		s.basis[i] = j
	}

	phase1 := make([]float64, total)
	for i := 0; i < m; i++ {
		phase1[n+i] = 1
	}
	if err := s.iterate(phase1, true); err != nil {
		return nil, 0, err
	}

	residual, scale := 0.0, 1.0
	for i := 0; i < m; i++ {
		residual += s.x[n+i]
		if a := math.Abs(b[i]); a > scale {
			scale = a
		}
	}
	if residual > 1e-7*scale {
		return nil, 0, errLPInfeasible
	}

	// Pin the artificials at zero for phase two. Basic artificials may
	// remain in the basis at value zero.
	for i := 0; i < m; i++ {
		s.u[n+i] = 0
		if s.x[n+i] < 0 {
			s.x[n+i] = 0
		}
	}
	phase2 := make([]float64, total)
	copy(phase2, c)
	if err := s.iterate(phase2, false); err != nil {
		return nil, 0, err
	}

	obj := 0.0
	for j := 0; j < n; j++ {
		obj += c[j] * s.x[j]
	}
	return s.x[:n], obj, nil
}

func (s *boundedSimplex) iterate(cost []float64, phase1 bool) error {
	total := s.n + s.m
	maxIter := 200*(s.m+total) + 2000
	stallLimit := s.m + total + 10
	stall := 0
	lastObj := math.Inf(1)

	var lu mat.LU
	for iter := 0; iter < maxIter; iter++ {
		if s.stop != nil && s.stop() {
			return errLPInterrupted
		}

		for i, j := range s.basis {
			col := s.cols[j]
			for r := 0; r < s.m; r++ {
				s.bmat.Set(r, i, col[r])
			}
		}
		lu.Factorize(s.bmat)

		// Recompute the basic values from the nonbasic assignment so
		// the iterate never drifts from the factorization.
		for i := 0; i < s.m; i++ {
			s.rhs.SetVec(i, s.b[i])
		}
		for j := 0; j < total; j++ {
			if s.state[j] == inBasis || s.x[j] == 0 {
				continue
			}
			xv := s.x[j]
			for i, a := range s.cols[j] {
				if a != 0 {
					s.rhs.SetVec(i, s.rhs.AtVec(i)-a*xv)
				}
			}
		}
		if err := lu.SolveVecTo(s.xb, false, s.rhs); err != nil && !isCondition(err) {
			return errLPNumerical
		}
		for i, j := range s.basis {
			v := s.xb.AtVec(i)
			if v < s.l[j] {
				v = s.l[j]
			} else if !math.IsInf(s.u[j], 1) && v > s.u[j] {
				v = s.u[j]
			}
			s.x[j] = v
		}

		for i, j := range s.basis {
			s.cb.SetVec(i, cost[j])
		}
		if err := lu.SolveVecTo(s.y, true, s.cb); err != nil && !isCondition(err) {
			return errLPNumerical
		}

		// Pricing: Dantzig's rule, falling back to Bland's when the
		// objective stops moving so degenerate cycles cannot spin
		// forever. Artificial columns never re-enter.
		useBland := stall >= stallLimit
		enter, dir := -1, 0.0
		bestViol := simplexTol
		for j := 0; j < s.n; j++ {
			if s.state[j] == inBasis || s.u[j]-s.l[j] < simplexPivot {
				continue
			}
			d := cost[j] - s.colDot(j)
			var viol, dj float64
			switch {
			case s.state[j] == atLower && d < -simplexTol:
				viol, dj = -d, 1
			case s.state[j] == atUpper && d > simplexTol:
				viol, dj = d, -1
			default:
				continue
			}
			if useBland {
				enter, dir = j, dj
				break
			}
			if viol > bestViol {
				bestViol, enter, dir = viol, j, dj
			}
		}
		if enter == -1 {
			return nil
		}

		for i, a := range s.cols[enter] {
			s.rhs.SetVec(i, a)
		}
		if err := lu.SolveVecTo(s.w, false, s.rhs); err != nil && !isCondition(err) {
			return errLPNumerical
		}

		// Ratio test: the entering variable moves until a basic column
		// hits a bound or it reaches its own opposite bound (a bound
		// flip, no basis change).
		flip := s.u[enter] - s.l[enter]
		minLim := math.Inf(1)
		leave, leaveUp := -1, false
		for i := 0; i < s.m; i++ {
			j := s.basis[i]
			delta := -dir * s.w.AtVec(i)
			var lim float64
			var up bool
			switch {
			case delta > simplexPivot:
				if math.IsInf(s.u[j], 1) {
					continue
				}
				lim = (s.u[j] - s.x[j]) / delta
				up = true
			case delta < -simplexPivot:
				lim = (s.x[j] - s.l[j]) / -delta
			default:
				continue
			}
			if lim < 0 {
				lim = 0
			}
			if lim < minLim-simplexTol || (lim <= minLim+simplexTol && (leave == -1 || j < s.basis[leave])) {
				minLim, leave, leaveUp = lim, i, up
			}
		}
		step := flip
		if leave != -1 && minLim < flip-simplexTol {
			step = minLim
		} else {
			leave = -1
		}
		if leave == -1 && math.IsInf(step, 1) {
			if phase1 {
				return errLPNumerical
			}
			return errLPUnbounded
		}
		if step < 0 {
			step = 0
		}

		for i, j := range s.basis {
			s.x[j] += -dir * s.w.AtVec(i) * step
		}
		s.x[enter] += dir * step
		if leave == -1 {
			if dir > 0 {
				s.x[enter] = s.u[enter]
				s.state[enter] = atUpper
			} else {
				s.x[enter] = s.l[enter]
				s.state[enter] = atLower
			}
		} else {
			jOut := s.basis[leave]
			if leaveUp {
				s.x[jOut] = s.u[jOut]
				s.state[jOut] = atUpper
			} else {
				s.x[jOut] = s.l[jOut]
				s.state[jOut] = atLower
			}
			s.basis[leave] = enter
			s.state[enter] = inBasis
		}

		obj := 0.0
		for j := 0; j < total; j++ {
			if cost[j] != 0 && s.x[j] != 0 {
				obj += cost[j] * s.x[j]
			}
		}
		if obj < lastObj-1e-12*(1+math.Abs(lastObj)) {
			lastObj = obj
			stall = 0
		} else {
			stall++
		}
	}
	return errLPNumerical
}

func (s *boundedSimplex) colDot(j int) float64 {
	var v float64
	for i, a := range s.cols[j] {
		if a != 0 {
			v += s.y.AtVec(i) * a
		}
	}
	return v
}

// isCondition reports whether err is only an ill-conditioning notice;
// gonum still writes a usable solution in that case.
func isCondition(err error) bool {
	var c mat.Condition
	return errors.As(err, &c)
}
