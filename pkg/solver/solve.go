package solver

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Options configures a single solve invocation. It is the whole
// configuration surface; there is no global solver state.
type Options struct {
	// TimeLimit is the wall-clock budget. Zero or negative means no
	// limit beyond the context deadline.
	TimeLimit time.Duration
	// MIPGap is the relative optimality gap at which search stops and
	// the incumbent is reported optimal.
	MIPGap float64
	// UseWarmstart instructs the solver to honor warmstart values
	// attached to the model.
	UseWarmstart bool
}

// ErrWarmstartNotHonored is returned when a model carries warmstart
// values but the options do not instruct the solver to honor them.
// Silently degrading to a cold start is the failure mode this guards
// against.
var ErrWarmstartNotHonored = errors.New("solver: model carries a warmstart but UseWarmstart is not set")

// ErrNumericalFailure is returned when the LP machinery cannot finish a
// relaxation and no incumbent exists to fall back on. It is a distinct
// outcome from StatusInfeasible, which is only ever reported when
// infeasibility has been proven.
var ErrNumericalFailure = errors.New("solver: numerical failure in LP relaxation")

// intTol is the tolerance within which a relaxation value counts as
// integral.
const intTol = 1e-6

type node struct {
	lbs, ubs []float64
	bound    float64
	seq      int
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].bound != h[j].bound {
		return h[i].bound < h[j].bound
	}
	// Ties dive toward the most recent branch so an integral incumbent
	// appears after roughly one dive instead of a breadth sweep.
	return h[i].seq > h[j].seq
}
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Solve runs branch-and-bound over LP relaxations of the model. The
// model must not be solved concurrently from multiple goroutines.
func Solve(ctx context.Context, m *Model, opts Options) (*Result, error) {
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	if m.warmCount > 0 && !opts.UseWarmstart {
		return nil, ErrWarmstartNotHonored
	}

	deadline, hasDeadline := ctx.Deadline()
	if opts.TimeLimit > 0 {
		d := time.Now().Add(opts.TimeLimit)
		if !hasDeadline || d.Before(deadline) {
			deadline = d
			hasDeadline = true
		}
	}
	expired := func() bool {
		if ctx.Err() != nil {
			return true
		}
		return hasDeadline && time.Now().After(deadline)
	}

	rootLB := make([]float64, len(m.vars))
	rootUB := make([]float64, len(m.vars))
	for i, v := range m.vars {
		rootLB[i] = v.lb
		rootUB[i] = v.ub
	}

	var (
		incumbent    []float64
		incumbentObj = math.Inf(1)
		nodes        int
		interrupted  bool
		seq          int
	)

	// A feasible, integral warmstart becomes the initial incumbent.
	if opts.UseWarmstart && m.warmCount > 0 {
		if x, obj, ok := m.probeWarmstart(rootLB, rootUB, expired); ok {
			incumbent = x
			incumbentObj = obj
		}
	}

	open := &nodeHeap{}
	heap.Init(open)

	_, rootObj, feasible, err := m.solveRelaxation(rootLB, rootUB, expired)
	nodes++
	if err != nil {
		if errors.Is(err, errLPInterrupted) {
			return m.finishResult(incumbent, incumbentObj, math.Inf(-1), nodes, true, open), nil
		}
		return nil, err
	}
	if !feasible {
		if incumbent == nil {
			r := NewResult(StatusInfeasible, len(m.vars))
			r.Nodes = nodes
			return r, nil
		}
	} else {
		heap.Push(open, &node{lbs: rootLB, ubs: rootUB, bound: rootObj, seq: seq})
		seq++
	}

	bestBound := math.Inf(-1)
	relGap := func() float64 {
		if incumbent == nil {
			return math.Inf(1)
		}
		if open.Len() == 0 {
			return 0
		}
		lb := (*open)[0].bound
		return (incumbentObj - lb) / math.Max(1, math.Abs(incumbentObj))
	}

	for open.Len() > 0 {
		if expired() {
			interrupted = true
			break
		}
		if incumbent != nil && relGap() <= opts.MIPGap {
			break
		}

		n := heap.Pop(open).(*node)
		bestBound = n.bound
		if incumbent != nil && n.bound >= incumbentObj-1e-9 {
			continue
		}

		x, obj, feasible, err := m.solveRelaxation(n.lbs, n.ubs, expired)
		nodes++
		if err != nil {
			if errors.Is(err, errLPInterrupted) {
				interrupted = true
				break
			}
			if incumbent != nil && errors.Is(err, ErrNumericalFailure) {
				// Numerical trouble on one node does not invalidate the
				// incumbent; report it without the optimality claim.
				interrupted = true
				break
			}
			return nil, err
		}
		if !feasible {
			continue
		}
		if incumbent != nil && obj >= incumbentObj-1e-9 {
			continue
		}

		branchVar := m.selectBranch(x)
		if branchVar < 0 {
			// Integral relaxation: new incumbent.
			incumbent = x
			incumbentObj = obj
			continue
		}

		floorV := math.Floor(x[branchVar])
		down := cloneBounds(n.lbs, n.ubs)
		down.ubs[branchVar] = floorV
		up := cloneBounds(n.lbs, n.ubs)
		up.lbs[branchVar] = floorV + 1

		children := []*node{
			{lbs: down.lbs, ubs: down.ubs, bound: obj},
			{lbs: up.lbs, ubs: up.ubs, bound: obj},
		}
		// Branch first toward the warmstart value when one exists.
		if m.vars[branchVar].hasWarm && m.vars[branchVar].warm > floorV+0.5 {
			children[0], children[1] = children[1], children[0]
		}
		for _, child := range children {
			child.seq = seq
			seq++
			heap.Push(open, child)
		}
	}

	return m.finishResult(incumbent, incumbentObj, bestBound, nodes, interrupted, open), nil
}

type bounds struct {
	lbs, ubs []float64
}

func cloneBounds(lbs, ubs []float64) bounds {
	nl := make([]float64, len(lbs))
	nu := make([]float64, len(ubs))
	copy(nl, lbs)
	copy(nu, ubs)
	return bounds{lbs: nl, ubs: nu}
}

func (m *Model) finishResult(incumbent []float64, incumbentObj, bestBound float64, nodes int, interrupted bool, open *nodeHeap) *Result {
	var r *Result
	switch {
	case incumbent == nil && interrupted:
		r = NewResult(StatusNoSolution, len(m.vars))
	case incumbent == nil:
		r = NewResult(StatusInfeasible, len(m.vars))
	case interrupted:
		r = NewResult(StatusFeasible, len(m.vars))
	default:
		r = NewResult(StatusOptimal, len(m.vars))
	}
	r.Nodes = nodes
	if incumbent != nil {
		for i, v := range incumbent {
			r.SetValue(Var(i), v)
		}
		r.Objective = incumbentObj + m.objOffset
		lb := bestBound
		if open.Len() > 0 {
			lb = (*open)[0].bound
		} else if r.Status == StatusOptimal {
			lb = incumbentObj
		}
		r.Gap = math.Max(0, (incumbentObj-lb)/math.Max(1, math.Abs(incumbentObj)))
	}
	return r
}

// selectBranch returns the most fractional integer variable, or -1
// when the assignment is integral.
func (m *Model) selectBranch(x []float64) int {
	best := -1
	bestFrac := intTol
	for i, v := range m.vars {
		if v.typ == Continuous {
			continue
		}
		frac := math.Abs(x[i] - math.Round(x[i]))
		if frac > bestFrac {
			bestFrac = frac
			best = i
		}
	}
	return best
}

// probeWarmstart fixes warmstarted variables at their initial values
// and solves the residual LP. A feasible, integral outcome seeds the
// incumbent.
func (m *Model) probeWarmstart(lbs, ubs []float64, stop func() bool) ([]float64, float64, bool) {
	wl := make([]float64, len(lbs))
	wu := make([]float64, len(ubs))
	copy(wl, lbs)
	copy(wu, ubs)
	for i, v := range m.vars {
		if !v.hasWarm {
			continue
		}
		val := v.warm
		if v.typ != Continuous {
			val = math.Round(val)
		}
		val = math.Min(math.Max(val, lbs[i]), ubs[i])
		wl[i] = val
		wu[i] = val
	}
	x, obj, feasible, err := m.solveRelaxation(wl, wu, stop)
	if err != nil || !feasible {
		return nil, 0, false
	}
	if m.selectBranch(x) >= 0 {
		return nil, 0, false
	}
	return x, obj, true
}

// solveRelaxation solves the LP relaxation of the model under the
// given variable bounds. Inequality rows get a slack column; variable
// bounds are handled inside the simplex rather than as extra rows, so
// a model where every variable is bounded stays the same size.
func (m *Model) solveRelaxation(lbs, ubs []float64, stop func() bool) (x []float64, obj float64, feasible bool, err error) {
	n := len(m.vars)
	for i := range m.vars {
		if lbs[i] > ubs[i] {
			// Bounds crossed; the node is infeasible.
			return nil, 0, false, nil
		}
	}

	rows := len(m.cons)
	slacks := 0
	for _, con := range m.cons {
		if con.sense != Equal {
			slacks++
		}
	}
	total := n + slacks

	cols := make([][]float64, total)
	for j := range cols {
		cols[j] = make([]float64, rows)
	}
	c := make([]float64, total)
	l := make([]float64, total)
	u := make([]float64, total)
	for i, v := range m.vars {
		c[i] = v.obj
		l[i] = lbs[i]
		u[i] = ubs[i]
	}
	b := make([]float64, rows)
	slack := n
	for r, con := range m.cons {
		for _, t := range con.terms {
			cols[t.Var][r] += t.Coef
		}
		b[r] = con.rhs
		if con.sense == Equal {
			continue
		}
		if con.sense == LessEq {
			cols[slack][r] = 1
		} else {
			cols[slack][r] = -1
		}
		u[slack] = math.Inf(1)
		slack++
	}

	sol, objv, serr := solveBoundedLP(c, cols, b, l, u, stop)
	switch {
	case serr == nil:
	case errors.Is(serr, errLPInfeasible):
		return nil, 0, false, nil
	case errors.Is(serr, errLPInterrupted):
		return nil, 0, false, serr
	case errors.Is(serr, errLPUnbounded):
		return nil, 0, false, fmt.Errorf("solver: LP relaxation is unbounded")
	default:
		return nil, 0, false, fmt.Errorf("%w: %v", ErrNumericalFailure, serr)
	}
	return sol[:n], objv, true, nil
}
