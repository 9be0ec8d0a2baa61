package dynacom

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors of the dynamics context
var (
	// ErrConfiguration indicates invalid settings, duplicate names or
	// vectors of the wrong size
	ErrConfiguration = errors.New("dynacom: configuration error")

	// ErrNotFound indicates an unknown contact or model frame
	ErrNotFound = errors.New("dynacom: not found")

	// ErrInfeasible indicates that no contact wrench distribution satisfies
	// the constraints
	ErrInfeasible = errors.New("dynacom: infeasible distribution")

	// ErrLoad indicates that the robot description could not be loaded
	ErrLoad = errors.New("dynacom: load error")
)

// InfeasibleError describes a rejected distribution
type InfeasibleError struct {
	Reason string
	// Contacts are the active contacts at the time of the solve
	Contacts []string
	// Residual is the worst violated equality or inequality, 0 when no
	// candidate was produced
	Residual float64
	Cause    error
}

func (e *InfeasibleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", ErrInfeasible, e.Reason)
	if len(e.Contacts) > 0 {
		fmt.Fprintf(&b, " (contacts %s)", strings.Join(e.Contacts, ", "))
	}
	if e.Residual > 0 {
		fmt.Fprintf(&b, ", residual %g", e.Residual)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *InfeasibleError) Unwrap() error {
	return e.Cause
}

func (e *InfeasibleError) Is(target error) bool {
	return target == ErrInfeasible
}
