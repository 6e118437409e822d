// Package model defines the capability interface that the
// interpreter core requires from a model-semantics engine, along
// with Mem, a simple in-memory implementation used in tests and
// demos.
//
// Any model format (SBML, CellML, BNGL, ...) is usable by
// implementing Model.  The core never looks inside a Model: it only
// reads and writes named values and asks for time advancement.
package model

import (
	"context"
)

// EntityKind classifies a model entity.
type EntityKind int

const (
	// Constant entities have no rate and no assignment rule.
	Constant EntityKind = iota

	// Differential entities are governed by rate rules (the ODE
	// state).
	Differential

	// Algebraic entities are derived from other entities by
	// assignment rules.  They are recomputed, never assigned
	// directly.
	Algebraic
)

func (k EntityKind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Differential:
		return "differential"
	case Algebraic:
		return "algebraic"
	}
	return "unknown"
}

// Interpretation says how a SetValue should be applied.  The
// bookkeeping (amount-vs-concentration conversion for species) is
// the model's business.
type Interpretation int

const (
	Raw Interpretation = iota
	Amount
	Concentration
)

// SimResult reports the outcome of an AdvanceTo.
//
// A failed steady-state search is reported here, not as an error:
// the core propagates it as a non-finite objective contribution
// rather than aborting.
type SimResult struct {
	// Time is the model time after the advance.
	Time float64

	// SteadyState is true when the advance was a
	// simulate-to-steady-state request.
	SteadyState bool

	// Converged is false only when a steady-state search did not
	// converge.
	Converged bool
}

// Model is the opaque handle for a loaded model.
//
// Implementations choose their own steady-state convergence
// criterion and should document it; Mem uses max |dx/dt| <= atol.
type Model interface {
	// Entities enumerates the model's entity identifiers and
	// their kinds.
	Entities() map[string]EntityKind

	// ApplyInitialParameterValues writes parameter values into
	// raw, uncomputed model state.  No derived quantities exist
	// yet.
	ApplyInitialParameterValues(ctx context.Context, values map[string]float64) error

	// EvaluateInitialAssignments resolves the model's own
	// initialization constructs (e.g. SBML initial assignments).
	EvaluateInitialAssignments(ctx context.Context) error

	// GetValue reads the current value of an entity.
	GetValue(id string) (float64, error)

	// SetValue writes an entity value under the given
	// interpretation.
	SetValue(id string, v float64, how Interpretation) error

	// RecomputeDerived recomputes all algebraic entities from the
	// current atomic state.
	RecomputeDerived(ctx context.Context) error

	// SetTime moves the model clock without integrating.  The core
	// aligns the clock to an experiment's start time during
	// initialization, and again after a pre-equilibration
	// steady-state search.
	SetTime(t float64)

	// CheckAndApplyEvents evaluates event triggers at the given
	// time against the current state and applies any pending
	// assignments.  Reports whether anything fired.
	CheckAndApplyEvents(ctx context.Context, atTime float64) (bool, error)

	// AdvanceTo integrates from the current time to the given
	// time.  A target of +inf requests simulation to steady
	// state.
	AdvanceTo(ctx context.Context, t float64) (SimResult, error)
}

// UnknownEntity occurs when a Model is asked about an identifier it
// doesn't have.
type UnknownEntity struct {
	ID string
}

func (e *UnknownEntity) Error() string {
	return `unknown model entity "` + e.ID + `"`
}

// NotAssignable occurs on an attempt to SetValue an algebraic
// entity.
type NotAssignable struct {
	ID string
}

func (e *NotAssignable) Error() string {
	return `model entity "` + e.ID + `" is algebraic and cannot be assigned`
}
