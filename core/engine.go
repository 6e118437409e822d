package core

import (
	"context"
	"math"
	"sort"

	"github.com/petab-dev/petab/expr"
	"github.com/petab-dev/petab/model"
	"github.com/petab-dev/petab/util"
)

// ProblemNotCompiled occurs when a Problem is used (say via Run())
// before it has been Compile()ed.
type ProblemNotCompiled struct {
	Problem *Problem
}

func (e *ProblemNotCompiled) Error() string {
	return "problem not compiled"
}

// StopReason represents the possible reasons a Run terminated.
type StopReason int

const (
	// Done means every period was processed.
	Done StopReason = iota

	// SteadyStateFailed means a steady-state search did not
	// converge.  This is an expected-possible outcome, not an
	// error: the run's likelihood becomes -inf and the caller's
	// objective becomes non-finite.
	SteadyStateFailed
)

// Observation is a simulated value matched to one measurement,
// together with its noise log-density.
type Observation struct {
	Measurement *Measurement `json:"measurement"`
	Time        float64      `json:"time"`
	Simulated   float64      `json:"simulated"`
	Sigma       float64      `json:"sigma"`
	LogDensity  float64      `json:"logDensity"`
}

// PeriodResult records what one period boundary did: the values
// assigned in phases 1-2, whether phase 4 fired events, and the
// phase-5 observations at the boundary plus any observations made
// while integrating across the period.
type PeriodResult struct {
	Time         float64            `json:"time"`
	Assigned     map[string]float64 `json:"assigned,omitempty"`
	EventsFired  bool               `json:"eventsFired,omitempty"`
	Observations []Observation      `json:"observations,omitempty"`
}

// Run is the result of driving one experiment from Uninitialized to
// Terminal.
type Run struct {
	ExperimentID   string          `json:"experimentId"`
	Periods        []*PeriodResult `json:"periods"`
	StoppedBecause StopReason      `json:"stoppedBecause"`
}

// Observations returns every observation across all periods.
func (r *Run) Observations() []Observation {
	acc := []Observation{}
	for _, p := range r.Periods {
		acc = append(acc, p.Observations...)
	}
	return acc
}

// LogLikelihood sums the observation log-densities.  A run stopped
// by a failed steady-state search contributes -inf.
func (r *Run) LogLikelihood() float64 {
	if r.StoppedBecause == SteadyStateFailed {
		return math.Inf(-1)
	}
	sum := 0.0
	for _, o := range r.Observations() {
		sum += o.LogDensity
	}
	return sum
}

// Runner drives experiments of one Problem against one Model.
//
// A Runner is not safe for concurrent Runs on the same Model; give
// each concurrent experiment its own Runner and Model (see
// Objective).
type Runner struct {
	Problem *Problem
	Model   model.Model
}

// instantEnv is the symbol table for one evaluation instant: the
// current time, the fixed parameter values, per-measurement
// placeholder bindings, and the model state as of now.
//
// The model is never mutated while an expression evaluates, so
// reads are stable within one evaluation.
type instantEnv struct {
	r      *Runner
	t      float64
	params map[string]float64
	extra  expr.Vars
}

func (e *instantEnv) Lookup(name string) (expr.Value, bool) {
	if v, have := e.extra[name]; have {
		return v, true
	}
	if name == "time" {
		return expr.Num(e.t), true
	}
	id := e.r.Problem.Registry.Canonical(name)
	if v, have := e.params[id]; have {
		return expr.Num(v), true
	}
	if v, err := e.r.Model.GetValue(id); err == nil {
		return expr.Num(v), true
	}
	return expr.Value{}, false
}

// paramValues assembles the full parameter map: nominal values
// overlaid with the caller's values for estimated parameters.
// Values are in linear space; any optimizer-side scale conversion
// happens before they get here.
func (r *Runner) paramValues(overrides map[string]float64) map[string]float64 {
	acc := make(map[string]float64, len(r.Problem.Parameters))
	for _, p := range r.Problem.Parameters {
		if p.HasNominal {
			acc[p.ID] = p.NominalValue
		}
		if v, have := overrides[p.ID]; have && p.Estimate {
			acc[p.ID] = v
		}
	}
	return acc
}

// Run drives one experiment to Terminal.
//
// The empty experiment id runs a bare simulation with no
// perturbations, for measurements that don't reference an
// experiment.
//
// overrides supplies values for estimated parameters (linear
// space); nil means nominal values throughout.
func (r *Runner) Run(ctx context.Context, experimentID string, overrides map[string]float64) (*Run, error) {
	if !r.Problem.compiled {
		return nil, &ProblemNotCompiled{r.Problem}
	}

	exp, err := r.experiment(experimentID)
	if err != nil {
		return nil, err
	}

	measurements := r.measurementsFor(experimentID)
	params := r.paramValues(overrides)
	opts := r.Problem.EvalOptions()

	util.Logf("run %q: %d periods, %d measurements", experimentID, len(exp.Periods), len(measurements))

	run := &Run{ExperimentID: experimentID}

	periods := exp.Periods
	preEq := len(periods) > 0 && math.IsInf(periods[0].Time, -1)
	start := exp.Start()

	// Uninitialized -> PreInitialized: parameter values go into
	// raw model state and the clock moves to the experiment's
	// start.
	if err := r.Model.ApplyInitialParameterValues(ctx, params); err != nil {
		return nil, err
	}
	r.Model.SetTime(start)

	// The first boundary's phases 1-2 run before the model's own
	// initialization; phase 3 at this one boundary is the
	// model's initial-assignment evaluation.  A pre-equilibration
	// period's conditions apply here, before the steady-state
	// search, with 'time' bound to the experiment's start.
	first := Period{Time: start}
	switch {
	case preEq:
		first.ConditionIDs = periods[0].ConditionIDs
	case len(periods) > 0:
		first = periods[0]
	}

	pr, err := r.boundary(ctx, &first, params, opts, true)
	if err != nil {
		return nil, err
	}

	if preEq {
		// Simulate to steady state under the
		// pre-equilibration condition, then continue at the
		// experiment's start time.
		res, err := r.Model.AdvanceTo(ctx, math.Inf(1))
		if err != nil {
			return nil, err
		}
		if !res.Converged {
			util.Logf("run %q: steady-state search failed at t=%v", experimentID, res.Time)
			run.Periods = append(run.Periods, pr)
			run.StoppedBecause = SteadyStateFailed
			return run, nil
		}
		// The steady-state search may have moved the clock;
		// integration resumes at the experiment's start.
		r.Model.SetTime(start)
		periods = periods[1:]

		// The start-time boundary still runs its own
		// conditions (if any).
		if len(periods) > 0 && periods[0].Time == start {
			more, err := r.boundary(ctx, &periods[0], params, opts, false)
			if err != nil {
				return nil, err
			}
			pr.Assigned = merged(pr.Assigned, more.Assigned)
			pr.EventsFired = pr.EventsFired || more.EventsFired
			periods = periods[1:]
		}
	} else if len(periods) > 0 {
		periods = periods[1:]
	}

	// Phase 5 at the first boundary.
	if err := r.observeAt(start, measurements, params, opts, pr); err != nil {
		return nil, err
	}
	run.Periods = append(run.Periods, pr)

	now := start
	for i := range periods {
		p := &periods[i]

		if stopped, err := r.integrate(ctx, now, p.Time, measurements, params, opts, run); err != nil || stopped {
			return run, err
		}
		now = p.Time

		pr, err := r.boundary(ctx, p, params, opts, false)
		if err != nil {
			return nil, err
		}
		if err := r.observeAt(p.Time, measurements, params, opts, pr); err != nil {
			return nil, err
		}
		run.Periods = append(run.Periods, pr)
	}

	// Tail: measurements after the last boundary, including
	// steady-state measurements at time = inf.
	if stopped, err := r.integrate(ctx, now, math.Inf(1), measurements, params, opts, run); err != nil || stopped {
		return run, err
	}

	run.StoppedBecause = Done
	return run, nil
}

// boundary runs phases 1-4 of the five-phase protocol at one period
// boundary.  Phase 5 (observation) is observeAt.
func (r *Runner) boundary(ctx context.Context, p *Period, params map[string]float64, opts *expr.Options, initial bool) (*PeriodResult, error) {
	pr := &PeriodResult{Time: p.Time}

	// Phase 1: evaluate every target value against the state as
	// of the end of the previous period.  'time' already
	// resolves to the new boundary time.
	env := &instantEnv{r: r, t: p.Time, params: params}
	type assignment struct {
		target string
		value  float64
	}
	assignments := make([]assignment, 0, len(p.ConditionIDs))
	seen := make(map[string]bool, len(p.ConditionIDs))
	for _, cid := range p.ConditionIDs {
		c := r.Problem.Conditions[cid]
		v, err := expr.EvalFloat(c.Target(), env, opts)
		if err != nil {
			return nil, err
		}
		target := r.Problem.Registry.Canonical(c.TargetID)
		if seen[target] {
			return nil, &ConflictingAssignments{Time: p.Time, TargetID: target}
		}
		seen[target] = true
		assignments = append(assignments, assignment{target, v})
	}

	// Phase 2: assign simultaneously.  All values come from
	// phase 1; nothing is recomputed against post-assignment
	// state.
	pr.Assigned = make(map[string]float64, len(assignments))
	for _, a := range assignments {
		if err := r.Model.SetValue(a.target, a.value, model.Raw); err != nil {
			return nil, err
		}
		pr.Assigned[a.target] = a.value
		util.Logf("boundary t=%v: %s = %v", p.Time, a.target, a.value)
	}

	// Phase 3: recompute derived state.  At the very first
	// boundary this is the model's own initialization.
	if initial {
		if err := r.Model.EvaluateInitialAssignments(ctx); err != nil {
			return nil, err
		}
	}
	if err := r.Model.RecomputeDerived(ctx); err != nil {
		return nil, err
	}

	// Phase 4: model events, strictly after phase 3.
	fired, err := r.Model.CheckAndApplyEvents(ctx, p.Time)
	if err != nil {
		return nil, err
	}
	pr.EventsFired = fired

	return pr, nil
}

// integrate advances the model across (from, to), stopping at each
// measurement time in between to observe.  Reports whether the run
// stopped because a steady-state search failed.
func (r *Runner) integrate(ctx context.Context, from, to float64, measurements []*Measurement, params map[string]float64, opts *expr.Options, run *Run) (bool, error) {
	times := []float64{}
	for _, ms := range measurements {
		if ms.Time > from && (ms.Time < to || (math.IsInf(ms.Time, 1) && math.IsInf(to, 1))) {
			times = append(times, ms.Time)
		}
	}
	sort.Float64s(times)

	for _, t := range dedup(times) {
		res, err := r.Model.AdvanceTo(ctx, t)
		if err != nil {
			return false, err
		}
		if !res.Converged {
			run.StoppedBecause = SteadyStateFailed
			return true, nil
		}
		pr := &PeriodResult{Time: t}
		if err := r.observeAt(t, measurements, params, opts, pr); err != nil {
			return false, err
		}
		run.Periods = append(run.Periods, pr)
	}

	if !math.IsInf(to, 1) {
		if _, err := r.Model.AdvanceTo(ctx, to); err != nil {
			return false, err
		}
	}
	return false, nil
}

// observeAt runs phase 5: for every measurement at time t, evaluate
// its observable formula (with placeholders bound positionally) and
// its noise formula, and record the log-density against the
// measured value.
func (r *Runner) observeAt(t float64, measurements []*Measurement, params map[string]float64, opts *expr.Options, pr *PeriodResult) error {
	for _, ms := range measurements {
		if ms.Time != t && !(math.IsInf(ms.Time, 1) && math.IsInf(t, 1)) {
			continue
		}
		obs := r.Problem.Observables[ms.ObservableID]

		env := &instantEnv{r: r, t: t, params: params, extra: expr.Vars{}}
		bindOverrides(env.extra, obs.Placeholders(), ms.ObservableParameters, params)

		simulated, err := expr.EvalFloat(obs.CompiledFormula(), env, opts)
		if err != nil {
			return err
		}

		sigma := 1.0
		if noise := obs.CompiledNoise(); noise != nil {
			nenv := &instantEnv{r: r, t: t, params: params, extra: expr.Vars{}}
			bindOverrides(nenv.extra, obs.NoisePlaceholders(), ms.NoiseParameters, params)
			// Proportional-noise formulas reference the
			// observable itself.
			nenv.extra[obs.ID] = expr.Num(simulated)
			if sigma, err = expr.EvalFloat(noise, nenv, opts); err != nil {
				return err
			}
		}

		ld, err := LogDensity(obs.NoiseDistribution, ms.Value, simulated, sigma)
		if err != nil {
			return err
		}

		pr.Observations = append(pr.Observations, Observation{
			Measurement: ms,
			Time:        t,
			Simulated:   simulated,
			Sigma:       sigma,
			LogDensity:  ld,
		})
	}
	return nil
}

func bindOverrides(vars expr.Vars, names []string, overrides []Override, params map[string]float64) {
	for i, name := range names {
		if i >= len(overrides) {
			break
		}
		ov := overrides[i]
		if ov.Ref != "" {
			vars[name] = expr.Num(params[ov.Ref])
		} else {
			vars[name] = expr.Num(ov.Num)
		}
	}
}

func (r *Runner) experiment(id string) (*Experiment, error) {
	if id == "" {
		// Measurements without an experiment: a single
		// unperturbed period starting at time 0.
		return &Experiment{Periods: []Period{{Time: 0}}}, nil
	}
	exp, have := r.Problem.Experiments[id]
	if !have {
		return nil, &UnknownExperiment{ExperimentID: id}
	}
	return exp, nil
}

func (r *Runner) measurementsFor(experimentID string) []*Measurement {
	acc := []*Measurement{}
	for _, ms := range r.Problem.Measurements {
		if ms.ExperimentID == experimentID {
			acc = append(acc, ms)
		}
	}
	return acc
}

func dedup(sorted []float64) []float64 {
	acc := sorted[:0]
	for i, x := range sorted {
		if i == 0 || sorted[i-1] != x {
			acc = append(acc, x)
		}
	}
	return acc
}

func merged(a, b map[string]float64) map[string]float64 {
	if len(b) == 0 {
		return a
	}
	if a == nil {
		a = make(map[string]float64, len(b))
	}
	for k, v := range b {
		a[k] = v
	}
	return a
}
