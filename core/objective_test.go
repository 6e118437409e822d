package core

import (
	"context"
	"math"
	"testing"

	"github.com/petab-dev/petab/model"
)

// boehmStyle builds a small problem in the shape of the Boehm
// tutorial: observables with fixed noise standard deviations,
// measurements over a handful of time points, one estimated
// parameter driving the dynamics.
func boehmStyle() (*Problem, func() model.Model) {
	newModel := func() model.Model {
		m := model.NewMem(map[string]model.EntityKind{
			"STAT5A": model.Differential,
		}, map[string]float64{
			"STAT5A": 0,
		})
		m.Step = func(t0, t1 float64, vals map[string]float64) {
			// Placeholder dynamics: linear growth.
			vals["STAT5A"] += t1 - t0
		}
		return m
	}

	p := &Problem{
		FormatVersion: 2,
		Conditions:    map[string]*Condition{},
		Experiments: map[string]*Experiment{
			"e1": {Periods: []Period{{Time: 0}}},
		},
		Observables: map[string]*Observable{
			"pSTAT5A_rel": {
				ID:           "pSTAT5A_rel",
				Formula:      "scale_A * STAT5A",
				NoiseFormula: "sd_pSTAT5A_rel",
			},
			"pSTAT5B_rel": {
				ID:           "pSTAT5B_rel",
				Formula:      "scale_B * STAT5A",
				NoiseFormula: "sd_pSTAT5B_rel",
			},
		},
		Measurements: []*Measurement{
			{ObservableID: "pSTAT5A_rel", ExperimentID: "e1", Time: 0, Value: 7.9},
			{ObservableID: "pSTAT5A_rel", ExperimentID: "e1", Time: 2.5, Value: 18.2},
			{ObservableID: "pSTAT5B_rel", ExperimentID: "e1", Time: 2.5, Value: 4.9},
		},
		Parameters: []*Parameter{
			{ID: "scale_A", LowerBound: 0, UpperBound: 10, NominalValue: 2, HasNominal: true, Estimate: true},
			{ID: "scale_B", NominalValue: 1, HasNominal: true},
			{ID: "sd_pSTAT5A_rel", NominalValue: 5, HasNominal: true},
			{ID: "sd_pSTAT5B_rel", NominalValue: 5, HasNominal: true},
		},
	}
	return p, newModel
}

func TestObjectiveEvaluate(t *testing.T) {
	p, newModel := boehmStyle()
	compile(t, p, newModel())

	o := &Objective{Problem: p, NewModel: newModel}

	// With scale_A = 2: simulated pSTAT5A_rel is 0 at t=0 and 5
	// at t=2.5; pSTAT5B_rel is 2.5 at t=2.5.
	nllh, err := o.Evaluate(context.Background(), []float64{2})
	if err != nil {
		t.Fatal(err)
	}

	point := func(m, y, sd float64) float64 {
		return -math.Log(math.Sqrt(2*math.Pi)*sd) - (m-y)*(m-y)/(2*sd*sd)
	}
	want := -(point(7.9, 0, 5) + point(18.2, 5, 5) + point(4.9, 2.5, 5))

	if math.Abs(nllh-want) > 1e-10 {
		t.Fatalf("got %v, wanted %v", nllh, want)
	}
}

func TestObjectivePosterior(t *testing.T) {
	p, newModel := boehmStyle()
	p.Parameters[0].Prior = &Prior{Distribution: PriorNormal, Parameters: []float64{2, 1}}
	compile(t, p, newModel())

	o := &Objective{Problem: p, NewModel: newModel, Posterior: true}

	nllh, err := o.Evaluate(context.Background(), []float64{2})
	if err != nil {
		t.Fatal(err)
	}
	plain := &Objective{Problem: p, NewModel: newModel}
	base, err := plain.Evaluate(context.Background(), []float64{2})
	if err != nil {
		t.Fatal(err)
	}

	// At the prior mean, the prior term is just the
	// normalization constant.
	want := base + math.Log(math.Sqrt(2*math.Pi))
	if math.Abs(nllh-want) > 1e-10 {
		t.Fatalf("got %v, wanted %v", nllh, want)
	}

	// Outside the bounds the posterior is +inf.
	nllh, err = o.Evaluate(context.Background(), []float64{11})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(nllh, 1) {
		t.Fatalf("got %v, wanted +inf", nllh)
	}
}

func TestObjectiveSteadyStateFailure(t *testing.T) {
	p, _ := boehmStyle()
	p.Experiments["e1"].Periods = append([]Period{{Time: math.Inf(-1)}}, p.Experiments["e1"].Periods...)

	newModel := func() model.Model {
		m := model.NewMem(map[string]model.EntityKind{
			"STAT5A": model.Differential,
		}, map[string]float64{"STAT5A": 0})
		m.Steady = func(vals map[string]float64) bool { return false }
		return m
	}
	compile(t, p, newModel())

	o := &Objective{Problem: p, NewModel: newModel}
	nllh, err := o.Evaluate(context.Background(), []float64{2})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(nllh, 1) {
		t.Fatalf("got %v, wanted +inf (failure is data, not an error)", nllh)
	}
}

func TestObjectiveParallelRuns(t *testing.T) {
	p, newModel := boehmStyle()
	p.Experiments["e2"] = &Experiment{Periods: []Period{{Time: 0}}}
	p.Measurements = append(p.Measurements,
		&Measurement{ObservableID: "pSTAT5A_rel", ExperimentID: "e2", Time: 1, Value: 2})
	compile(t, p, newModel())

	o := &Objective{Problem: p, NewModel: newModel}
	seq := &Objective{Problem: p, NewModel: newModel, Sequential: true}

	a, err := o.Evaluate(context.Background(), []float64{2})
	if err != nil {
		t.Fatal(err)
	}
	b, err := seq.Evaluate(context.Background(), []float64{2})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(a-b) > 1e-12 {
		t.Fatalf("parallel %v != sequential %v", a, b)
	}
}

func TestObjectiveVector(t *testing.T) {
	p, newModel := boehmStyle()
	compile(t, p, newModel())

	o := &Objective{Problem: p, NewModel: newModel}
	ids := p.EstimatedIDs()
	if len(ids) != 1 || ids[0] != "scale_A" {
		t.Fatalf("got %v", ids)
	}
	ov := o.Vector([]float64{3})
	if ov["scale_A"] != 3 {
		t.Fatalf("got %v", ov)
	}
}
