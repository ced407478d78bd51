package solver

// Status represents the outcome of a MIP solve
type Status int

const (
	// StatusOptimal means the incumbent is proven optimal within the
	// configured gap.
	StatusOptimal Status = iota
	// StatusFeasible means the time budget expired with an incumbent
	// that is not proven optimal.
	StatusFeasible
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
	// StatusNoSolution means the time budget expired before any
	// incumbent was found.
	StatusNoSolution
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusFeasible:
		return "Feasible"
	case StatusInfeasible:
		return "Infeasible"
	case StatusNoSolution:
		return "NoSolution"
	default:
		return "Unknown"
	}
}

// HasSolution reports whether variable values are available.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Result holds the outcome of a solve. Variable values are exposed
// through an explicit assigned predicate: a variable the solver never
// assigned reads as (0, false) and callers treat that as a clean zero.
type Result struct {
	Status    Status
	Objective float64
	Gap       float64
	Nodes     int

	values   []float64
	assigned []bool
}

// NewResult creates a result shell with the given status. Used by the
// solver and by tests that stub solved values.
func NewResult(status Status, numVars int) *Result {
	return &Result{
		Status:   status,
		values:   make([]float64, numVars),
		assigned: make([]bool, numVars),
	}
}

// SetValue records a solved value for a variable.
func (r *Result) SetValue(v Var, value float64) {
	r.values[v] = value
	r.assigned[v] = true
}

// Value returns the solved value of a variable and whether the solver
// assigned one.
func (r *Result) Value(v Var) (float64, bool) {
	if int(v) < 0 || int(v) >= len(r.values) || !r.assigned[v] {
		return 0, false
	}
	return r.values[v], true
}
