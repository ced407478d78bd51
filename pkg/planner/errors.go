package planner

import "fmt"

// ModelBuildError reports an internal inconsistency discovered while
// assembling the MIP, such as a route leg referencing an undefined
// location. Always fatal.
type ModelBuildError struct {
	Component string
	Reason    string
}

func (e *ModelBuildError) Error() string {
	return fmt.Sprintf("model build: %s: %s", e.Component, e.Reason)
}

func newBuildError(component, format string, args ...interface{}) *ModelBuildError {
	return &ModelBuildError{Component: component, Reason: fmt.Sprintf(format, args...)}
}

// ExtractionError reports a solved model that violates an invariant
// beyond numerical tolerance. It indicates a builder/solver mismatch,
// not a data problem, and is fatal.
type ExtractionError struct {
	Invariant string
	Detail    string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction: %s invariant violated: %s", e.Invariant, e.Detail)
}

func newExtractionError(invariant, format string, args ...interface{}) *ExtractionError {
	return &ExtractionError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}
