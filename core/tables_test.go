package core

import (
	"context"
	"math"
	"testing"
)

func TestNewExperiment(t *testing.T) {
	e := NewExperiment("e1",
		[]float64{10, 0, 0, math.Inf(-1)},
		[]string{"c", "a", "b", "pre"})
	if len(e.Periods) != 3 {
		t.Fatalf("got %v", e.Periods)
	}
	if !math.IsInf(e.Periods[0].Time, -1) || e.Periods[0].ConditionIDs[0] != "pre" {
		t.Fatalf("got %v", e.Periods[0])
	}
	if e.Periods[1].Time != 0 || len(e.Periods[1].ConditionIDs) != 2 {
		t.Fatalf("got %v", e.Periods[1])
	}
	if e.Periods[2].Time != 10 {
		t.Fatalf("got %v", e.Periods[2])
	}
	if e.Start() != 0 {
		t.Fatalf("got %v", e.Start())
	}
}

func TestCompileBadPeriodTimes(t *testing.T) {
	for _, periods := range [][]Period{
		{{Time: 5}, {Time: 5}},
		{{Time: 5}, {Time: 0}},
		{{Time: 0}, {Time: math.Inf(-1)}},
	} {
		p := &Problem{
			FormatVersion: 2,
			Experiments: map[string]*Experiment{
				"e1": {ID: "e1", Periods: periods},
			},
		}
		err := p.Compile(context.Background(), testModel())
		if err == nil {
			t.Fatalf("%v should have failed", periods)
		}
		if _, is := err.(*BadPeriodTimes); !is {
			t.Fatalf("%v: wanted BadPeriodTimes, got %T (%v)", periods, err, err)
		}
	}
}

func TestCompileBadConditionTarget(t *testing.T) {
	p := &Problem{
		FormatVersion: 2,
		Conditions: map[string]*Condition{
			// Z is algebraic, so it cannot be assigned.
			"c1": {TargetID: "Z", TargetValue: "1"},
		},
	}
	err := p.Compile(context.Background(), testModel())
	if err == nil {
		t.Fatal("should have failed")
	}
	bad, is := err.(*BadConditionTarget)
	if !is {
		t.Fatalf("wanted BadConditionTarget, got %T (%v)", err, err)
	}
	if bad.TargetID != "Z" || bad.Class != SymAlgebraic {
		t.Fatalf("got %v", bad)
	}
}

func TestCompileObservableReference(t *testing.T) {
	p := &Problem{
		FormatVersion: 2,
		Observables: map[string]*Observable{
			"obs_a": {ID: "obs_a", Formula: "X"},
			"obs_b": {ID: "obs_b", Formula: "obs_a + 1"},
		},
	}
	err := p.Compile(context.Background(), testModel())
	if err == nil {
		t.Fatal("should have failed")
	}
	if _, is := err.(*ObservableReference); !is {
		t.Fatalf("wanted ObservableReference, got %T (%v)", err, err)
	}
}

func TestCompileNoiseSelfReference(t *testing.T) {
	// Proportional noise references the observable's own id.
	p := &Problem{
		FormatVersion: 2,
		Observables: map[string]*Observable{
			"obs_x": {ID: "obs_x", Formula: "X", NoiseFormula: "0.1 * obs_x"},
		},
	}
	if err := p.Compile(context.Background(), testModel()); err != nil {
		t.Fatal(err)
	}
}

func TestCompileMeasurementBeforeStart(t *testing.T) {
	p := &Problem{
		FormatVersion: 2,
		Experiments: map[string]*Experiment{
			"e1": {ID: "e1", Periods: []Period{{Time: 5}}},
		},
		Observables: map[string]*Observable{
			"obs_x": {ID: "obs_x", Formula: "X"},
		},
		Measurements: []*Measurement{
			{ObservableID: "obs_x", ExperimentID: "e1", Time: 2, Value: 1},
		},
	}
	err := p.Compile(context.Background(), testModel())
	if err == nil {
		t.Fatal("should have failed")
	}
	if _, is := err.(*MeasurementBeforeStart); !is {
		t.Fatalf("wanted MeasurementBeforeStart, got %T (%v)", err, err)
	}
}

func TestCompilePlaceholderNumbering(t *testing.T) {
	// Placeholder numbering must be consecutive from 1.
	p := &Problem{
		FormatVersion: 2,
		Observables: map[string]*Observable{
			"obs_x": {ID: "obs_x", Formula: "observableParameter2_obs_x * X"},
		},
	}
	err := p.Compile(context.Background(), testModel())
	if err == nil {
		t.Fatal("should have failed")
	}
	if _, is := err.(*PlaceholderMismatch); !is {
		t.Fatalf("wanted PlaceholderMismatch, got %T (%v)", err, err)
	}
}

func TestParameterValidate(t *testing.T) {
	good := &Parameter{ID: "k", LowerBound: 0, UpperBound: 1, Estimate: true}
	if err := good.validate(); err != nil {
		t.Fatal(err)
	}

	bad := &Parameter{ID: "k", LowerBound: 1, UpperBound: 1, Estimate: true}
	if err := bad.validate(); err == nil {
		t.Fatal("empty bound interval should have failed")
	}

	fixed := &Parameter{ID: "k"}
	if err := fixed.validate(); err == nil {
		t.Fatal("fixed parameter without nominal value should have failed")
	}
	fixed.HasNominal = true
	if err := fixed.validate(); err != nil {
		t.Fatal(err)
	}
}

func TestCompileDuplicateAcrossTables(t *testing.T) {
	// A parameter and an observable may not share an id.
	p := &Problem{
		FormatVersion: 2,
		Parameters: []*Parameter{
			{ID: "obs_x", NominalValue: 1, HasNominal: true},
		},
		Observables: map[string]*Observable{
			"obs_x": {ID: "obs_x", Formula: "X"},
		},
	}
	err := p.Compile(context.Background(), testModel())
	if err == nil {
		t.Fatal("should have failed")
	}
	if _, is := err.(*DuplicateIdentifier); !is {
		t.Fatalf("wanted DuplicateIdentifier, got %T (%v)", err, err)
	}
}

func TestCompileMapping(t *testing.T) {
	p := &Problem{
		FormatVersion: 2,
		Mappings:      map[string]string{"x_total": "X"},
		Conditions: map[string]*Condition{
			"c1": {TargetID: "x_total", TargetValue: "2"},
		},
	}
	if err := p.Compile(context.Background(), testModel()); err != nil {
		t.Fatal(err)
	}
	if got := p.Registry.Canonical("x_total"); got != "X" {
		t.Fatalf("got %q", got)
	}
}

func TestEstimatedIDs(t *testing.T) {
	p := &Problem{
		Parameters: []*Parameter{
			{ID: "a", Estimate: true},
			{ID: "b"},
			{ID: "c", Estimate: true},
		},
	}
	ids := p.EstimatedIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("got %v", ids)
	}
}
