// Package calculate derives fit diagnostics from simulation runs:
// residuals, chi-square, and log-likelihood.
package calculate

import (
	"fmt"
	"math"

	"github.com/petab-dev/petab/core"
	"github.com/petab-dev/petab/expr"
)

// Residual is one measurement's misfit.
type Residual struct {
	Observation core.Observation `json:"observation"`
	Value       float64          `json:"residual"`
}

// Residuals computes simulated-minus-measured misfits for every
// observation of the given runs.
//
// Log-scale noise distributions compare on the log scale, matching
// how their densities weigh the misfit.  With normalize set, each
// residual is divided by its noise standard deviation.
func Residuals(p *core.Problem, runs []*core.Run, normalize bool) []Residual {
	acc := []Residual{}
	for _, run := range runs {
		acc = append(acc, ResidualsOf(p, run.Observations(), normalize)...)
	}
	return acc
}

// ResidualsOf computes misfits for bare observations, however they
// were produced.
func ResidualsOf(p *core.Problem, observations []core.Observation, normalize bool) []Residual {
	acc := make([]Residual, 0, len(observations))
	for _, o := range observations {
		obs := p.Observables[o.Measurement.ObservableID]
		v := transform(obs.NoiseDistribution, o.Simulated) -
			transform(obs.NoiseDistribution, o.Measurement.Value)
		if normalize {
			v /= o.Sigma
		}
		acc = append(acc, Residual{Observation: o, Value: v})
	}
	return acc
}

// Chi2 is the sum of squared normalized residuals.
func Chi2(p *core.Problem, runs []*core.Run) float64 {
	sum := 0.0
	for _, r := range Residuals(p, runs, true) {
		sum += r.Value * r.Value
	}
	return sum
}

// Chi2Of is Chi2 over bare observations.
func Chi2Of(p *core.Problem, observations []core.Observation) float64 {
	sum := 0.0
	for _, r := range ResidualsOf(p, observations, true) {
		sum += r.Value * r.Value
	}
	return sum
}

// LogLikelihood sums the log-likelihood across runs.  Any run that
// stopped on a failed steady-state search makes the total -inf.
func LogLikelihood(runs []*core.Run) float64 {
	sum := 0.0
	for _, run := range runs {
		sum += run.LogLikelihood()
	}
	return sum
}

// LogLikelihoodOf sums observation log-densities.
func LogLikelihoodOf(observations []core.Observation) float64 {
	sum := 0.0
	for _, o := range observations {
		sum += o.LogDensity
	}
	return sum
}

// Simulation is one externally simulated value, e.g. a row of a
// simulation table produced by some other tool.
type Simulation struct {
	ObservableID string  `json:"observableId" yaml:"observableId"`
	ExperimentID string  `json:"experimentId,omitempty" yaml:"experimentId,omitempty"`
	Time         float64 `json:"time" yaml:"time"`
	Value        float64 `json:"simulation" yaml:"simulation"`
}

// Observations matches each measurement of a compiled problem to a
// simulation row by observable, experiment, and time (replicates
// match in order) and computes each point's noise standard deviation
// and log-density.
//
// Noise formulas evaluate against parameter nominal values, the
// measurement's noise-parameter overrides, and the simulated value
// bound to the observable's id.  Model state isn't available in this
// table-only mode, so a noise formula that reads it is an error
// here.
func Observations(p *core.Problem, sims []Simulation) ([]core.Observation, error) {
	type key struct {
		obs, exp string
		t        float64
	}
	pending := make(map[key][]float64)
	for _, s := range sims {
		k := key{s.ObservableID, s.ExperimentID, s.Time}
		pending[k] = append(pending[k], s.Value)
	}

	params := make(map[string]float64, len(p.Parameters))
	for _, par := range p.Parameters {
		if par.HasNominal {
			params[par.ID] = par.NominalValue
		}
	}
	opts := p.EvalOptions()

	acc := make([]core.Observation, 0, len(p.Measurements))
	for _, ms := range p.Measurements {
		k := key{ms.ObservableID, ms.ExperimentID, ms.Time}
		vals := pending[k]
		if len(vals) == 0 {
			return nil, fmt.Errorf("no simulation for %s/%s at t=%v",
				ms.ObservableID, ms.ExperimentID, ms.Time)
		}
		simulated := vals[0]
		pending[k] = vals[1:]

		obs := p.Observables[ms.ObservableID]

		sigma := 1.0
		if noise := obs.CompiledNoise(); noise != nil {
			env := expr.Vars{obs.ID: expr.Num(simulated)}
			names := obs.NoisePlaceholders()
			for i, name := range names {
				if i >= len(ms.NoiseParameters) {
					break
				}
				ov := ms.NoiseParameters[i]
				if ov.Ref != "" {
					env[name] = expr.Num(params[ov.Ref])
				} else {
					env[name] = expr.Num(ov.Num)
				}
			}
			for id, v := range params {
				if _, have := env[id]; !have {
					env[id] = expr.Num(v)
				}
			}
			var err error
			if sigma, err = expr.EvalFloat(noise, env, opts); err != nil {
				return nil, err
			}
		}

		ld, err := core.LogDensity(obs.NoiseDistribution, ms.Value, simulated, sigma)
		if err != nil {
			return nil, err
		}

		acc = append(acc, core.Observation{
			Measurement: ms,
			Time:        ms.Time,
			Simulated:   simulated,
			Sigma:       sigma,
			LogDensity:  ld,
		})
	}
	return acc, nil
}

func transform(d core.NoiseDistribution, x float64) float64 {
	switch d {
	case core.NoiseLogNormal, core.NoiseLogLaplace:
		return math.Log(x)
	case core.NoiseLog10Normal, core.NoiseLog10Laplace:
		return math.Log10(x)
	}
	return x
}
