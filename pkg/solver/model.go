package solver

import (
	"fmt"
	"math"
)

// Var references a decision variable within a Model.
type Var int

// VarType represents the domain of a decision variable
type VarType int

const (
	Continuous VarType = iota
	Integer
	Binary
)

// Sense represents the direction of a linear constraint
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

// Term is one coefficient in a linear constraint row.
type Term struct {
	Var  Var
	Coef float64
}

type variable struct {
	name    string
	typ     VarType
	lb, ub  float64
	obj     float64
	warm    float64
	hasWarm bool
}

type constraint struct {
	name  string
	terms []Term
	sense Sense
	rhs   float64
}

// Model is a sparse mixed-integer program built row by row. A Model is
// owned by a single solve and must not be shared between concurrent
// Solve calls.
type Model struct {
	vars      []variable
	cons      []constraint
	objOffset float64
	warmCount int
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{}
}

// AddContVar adds a continuous variable with the given bounds and
// objective coefficient. An upper bound of +Inf is allowed only when
// the variable is otherwise bounded by constraints.
func (m *Model) AddContVar(name string, lb, ub, obj float64) Var {
	return m.addVar(name, Continuous, lb, ub, obj)
}

// AddIntVar adds a general integer variable.
func (m *Model) AddIntVar(name string, lb, ub, obj float64) Var {
	return m.addVar(name, Integer, lb, ub, obj)
}

// AddBinVar adds a binary variable.
func (m *Model) AddBinVar(name string, obj float64) Var {
	return m.addVar(name, Binary, 0, 1, obj)
}

func (m *Model) addVar(name string, typ VarType, lb, ub, obj float64) Var {
	m.vars = append(m.vars, variable{name: name, typ: typ, lb: lb, ub: ub, obj: obj})
	return Var(len(m.vars) - 1)
}

// AddConstraint adds one linear row. Terms referencing the same
// variable more than once are summed.
func (m *Model) AddConstraint(name string, terms []Term, sense Sense, rhs float64) {
	m.cons = append(m.cons, constraint{name: name, terms: terms, sense: sense, rhs: rhs})
}

// AddObjective adds to a variable's objective coefficient.
func (m *Model) AddObjective(v Var, coef float64) {
	m.vars[v].obj += coef
}

// AddObjectiveOffset adds a constant term to the objective. Fixed labor
// cost uses this.
func (m *Model) AddObjectiveOffset(c float64) {
	m.objOffset += c
}

// SetWarmstart records an initial value for a variable. The value is
// only honored when Options.UseWarmstart is set; Solve refuses to run a
// model that carries warmstart values without that flag.
func (m *Model) SetWarmstart(v Var, value float64) {
	if !m.vars[v].hasWarm {
		m.warmCount++
	}
	m.vars[v].warm = value
	m.vars[v].hasWarm = true
}

// WarmstartSize returns the number of variables carrying warmstart
// values.
func (m *Model) WarmstartSize() int {
	return m.warmCount
}

// NumVars returns the number of variables in the model.
func (m *Model) NumVars() int {
	return len(m.vars)
}

// NumConstraints returns the number of constraint rows in the model.
func (m *Model) NumConstraints() int {
	return len(m.cons)
}

// VarName returns the name a variable was registered under.
func (m *Model) VarName(v Var) string {
	return m.vars[v].name
}

func (m *Model) validate() error {
	for _, v := range m.vars {
		if v.lb > v.ub {
			return fmt.Errorf("variable %s: lower bound %g exceeds upper bound %g", v.name, v.lb, v.ub)
		}
		if math.IsInf(v.lb, -1) {
			return fmt.Errorf("variable %s: free variables are not supported", v.name)
		}
		if v.typ != Continuous && math.IsInf(v.ub, 1) {
			return fmt.Errorf("variable %s: integer variables require a finite upper bound", v.name)
		}
	}
	for _, c := range m.cons {
		for _, t := range c.terms {
			if int(t.Var) < 0 || int(t.Var) >= len(m.vars) {
				return fmt.Errorf("constraint %s references undefined variable %d", c.name, t.Var)
			}
		}
	}
	return nil
}
