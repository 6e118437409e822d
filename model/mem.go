package model

import (
	"context"
	"math"
)

// Mem is a map-backed Model.
//
// Mem holds named values and delegates the actual dynamics to
// optional function fields, so a test or demo can stand up exactly
// the behavior it needs.  A Mem with no function fields is a purely
// static model: values change only via SetValue.
type Mem struct {
	kinds map[string]EntityKind
	vals  map[string]float64
	now   float64

	// Derive recomputes algebraic entities in place from the
	// current atomic values.
	Derive func(vals map[string]float64)

	// Step integrates the differential entities in place from t0
	// to t1.  Nil means state is piecewise constant in time.
	Step func(t0, t1 float64, vals map[string]float64)

	// Steady advances to steady state in place and reports
	// whether the search converged.  Nil means the current state
	// already is a steady state.
	//
	// Mem documents max |dx/dt| <= atol as the intended
	// convergence criterion for implementations of this hook.
	Steady func(vals map[string]float64) bool

	// Events checks triggers at the given time, applies any
	// pending assignments in place, and reports whether anything
	// fired.
	Events func(t float64, vals map[string]float64) bool

	// InitialAssignments resolves model-owned initialization.
	InitialAssignments func(vals map[string]float64)
}

// NewMem makes a Mem with the given entities and initial values.
func NewMem(kinds map[string]EntityKind, init map[string]float64) *Mem {
	ks := make(map[string]EntityKind, len(kinds))
	for id, k := range kinds {
		ks[id] = k
	}
	vs := make(map[string]float64, len(init))
	for id, v := range init {
		vs[id] = v
	}
	return &Mem{kinds: ks, vals: vs}
}

// Fork makes an independent copy sharing the function fields, for
// running experiments in parallel.
func (m *Mem) Fork() *Mem {
	n := NewMem(m.kinds, m.vals)
	n.now = m.now
	n.Derive = m.Derive
	n.Step = m.Step
	n.Steady = m.Steady
	n.Events = m.Events
	n.InitialAssignments = m.InitialAssignments
	return n
}

// Now returns the current model time.
func (m *Mem) Now() float64 {
	return m.now
}

func (m *Mem) Entities() map[string]EntityKind {
	acc := make(map[string]EntityKind, len(m.kinds))
	for id, k := range m.kinds {
		acc[id] = k
	}
	return acc
}

// ApplyInitialParameterValues writes the given values into raw
// state.  Identifiers the model doesn't know are skipped: PEtab
// output parameters live outside the model.
func (m *Mem) ApplyInitialParameterValues(ctx context.Context, values map[string]float64) error {
	for id, v := range values {
		if _, have := m.kinds[id]; have {
			m.vals[id] = v
		}
	}
	return nil
}

func (m *Mem) EvaluateInitialAssignments(ctx context.Context) error {
	if m.InitialAssignments != nil {
		m.InitialAssignments(m.vals)
	}
	return nil
}

func (m *Mem) GetValue(id string) (float64, error) {
	v, have := m.vals[id]
	if !have {
		return 0, &UnknownEntity{ID: id}
	}
	return v, nil
}

func (m *Mem) SetValue(id string, v float64, how Interpretation) error {
	k, have := m.kinds[id]
	if !have {
		return &UnknownEntity{ID: id}
	}
	if k == Algebraic {
		return &NotAssignable{ID: id}
	}
	// Mem has no amount/concentration distinction, so all
	// interpretations are Raw.
	m.vals[id] = v
	return nil
}

func (m *Mem) RecomputeDerived(ctx context.Context) error {
	if m.Derive != nil {
		m.Derive(m.vals)
	}
	return nil
}

func (m *Mem) CheckAndApplyEvents(ctx context.Context, atTime float64) (bool, error) {
	if m.Events == nil {
		return false, nil
	}
	return m.Events(atTime, m.vals), nil
}

func (m *Mem) AdvanceTo(ctx context.Context, t float64) (SimResult, error) {
	if err := ctx.Err(); err != nil {
		return SimResult{}, err
	}

	if math.IsInf(t, 1) {
		converged := true
		if m.Steady != nil {
			converged = m.Steady(m.vals)
		}
		return SimResult{Time: m.now, SteadyState: true, Converged: converged}, nil
	}

	if m.Step != nil {
		m.Step(m.now, t, m.vals)
	}
	m.now = t
	return SimResult{Time: t, Converged: true}, nil
}

// SetTime moves the model clock without integrating, e.g. when a
// pre-equilibrated model is reset to an experiment's start time.
func (m *Mem) SetTime(t float64) {
	m.now = t
}
