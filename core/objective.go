package core

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/petab-dev/petab/model"
)

// Objective computes the negative log-likelihood (or unnormalized
// negative log-posterior) of a Problem at a parameter vector.
//
// Experiments are mutually independent, so they are evaluated
// concurrently: each gets its own Runner and its own Model from
// NewModel.  The Problem itself is read-only during evaluation.
type Objective struct {
	Problem *Problem

	// NewModel returns a fresh model handle in its unloaded
	// state.  Called once per experiment per evaluation.
	NewModel func() model.Model

	// Posterior adds the parameter-prior terms, making the value
	// an unnormalized negative log-posterior.
	Posterior bool

	// Sequential disables concurrent experiment evaluation.
	Sequential bool
}

// Vector maps an ordered parameter vector (estimate=true rows, in
// table order, linear space) to an override map.
func (o *Objective) Vector(x []float64) map[string]float64 {
	ids := o.Problem.EstimatedIDs()
	acc := make(map[string]float64, len(ids))
	for i, id := range ids {
		if i < len(x) {
			acc[id] = x[i]
		}
	}
	return acc
}

// experimentIDs returns the distinct experiment ids referenced by
// measurements, in deterministic order.  The empty id (measurements
// without an experiment) can be among them.
func (o *Objective) experimentIDs() []string {
	seen := map[string]bool{}
	for _, ms := range o.Problem.Measurements {
		seen[ms.ExperimentID] = true
	}
	acc := make([]string, 0, len(seen))
	for id := range seen {
		acc = append(acc, id)
	}
	sort.Strings(acc)
	return acc
}

// Evaluate computes the objective at x.
//
// A failed steady-state search anywhere makes the result +inf: that
// outcome is data, not an error.  Anything else that goes wrong
// (which a compiled Problem makes rare) is returned as an error.
func (o *Objective) Evaluate(ctx context.Context, x []float64) (float64, error) {
	overrides := o.Vector(x)

	runs, err := o.RunAll(ctx, overrides)
	if err != nil {
		return math.NaN(), err
	}

	nllh := 0.0
	for _, run := range runs {
		if run.StoppedBecause == SteadyStateFailed {
			return math.Inf(1), nil
		}
		nllh -= run.LogLikelihood()
	}

	if o.Posterior {
		prior, err := o.logPrior(overrides)
		if err != nil {
			return math.NaN(), err
		}
		if math.IsInf(prior, -1) {
			return math.Inf(1), nil
		}
		nllh -= prior
	}

	return nllh, nil
}

// RunAll runs every experiment referenced by measurements and
// returns the Runs in the same order as the sorted experiment ids.
func (o *Objective) RunAll(ctx context.Context, overrides map[string]float64) ([]*Run, error) {
	ids := o.experimentIDs()
	runs := make([]*Run, len(ids))
	errs := make([]error, len(ids))

	if o.Sequential || len(ids) < 2 {
		for i, id := range ids {
			runner := &Runner{Problem: o.Problem, Model: o.NewModel()}
			runs[i], errs[i] = runner.Run(ctx, id, overrides)
		}
	} else {
		var wg sync.WaitGroup
		for i, id := range ids {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				runner := &Runner{Problem: o.Problem, Model: o.NewModel()}
				runs[i], errs[i] = runner.Run(ctx, id, overrides)
			}(i, id)
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (o *Objective) logPrior(overrides map[string]float64) (float64, error) {
	sum := 0.0
	for _, p := range o.Problem.Parameters {
		if !p.Estimate {
			continue
		}
		x, have := overrides[p.ID]
		if !have {
			x = p.NominalValue
		}
		ld, err := PriorLogDensity(p.Prior, x, p.LowerBound, p.UpperBound)
		if err != nil {
			return 0, err
		}
		sum += ld
	}
	return sum, nil
}
