package calculate

import (
	"context"
	"math"
	"testing"

	"github.com/petab-dev/petab/core"
	"github.com/petab-dev/petab/model"
)

func testRuns() (*core.Problem, []*core.Run) {
	p := &core.Problem{
		Observables: map[string]*core.Observable{
			"obs_lin": {ID: "obs_lin"},
			"obs_log": {ID: "obs_log", NoiseDistribution: core.NoiseLogNormal},
		},
	}
	run := &core.Run{
		ExperimentID: "e1",
		Periods: []*core.PeriodResult{
			{
				Time: 0,
				Observations: []core.Observation{
					{
						Measurement: &core.Measurement{ObservableID: "obs_lin", Value: 3},
						Simulated:   5,
						Sigma:       2,
						LogDensity:  -1.25,
					},
					{
						Measurement: &core.Measurement{ObservableID: "obs_log", Value: 1},
						Simulated:   math.E,
						Sigma:       0.5,
						LogDensity:  -0.75,
					},
				},
			},
		},
	}
	return p, []*core.Run{run}
}

func TestResiduals(t *testing.T) {
	p, runs := testRuns()

	rs := Residuals(p, runs, false)
	if len(rs) != 2 {
		t.Fatalf("got %v", rs)
	}
	if rs[0].Value != 2 {
		t.Fatalf("got %v", rs[0].Value)
	}
	// Log-normal residuals compare on the log scale:
	// ln e - ln 1 = 1.
	if math.Abs(rs[1].Value-1) > 1e-12 {
		t.Fatalf("got %v", rs[1].Value)
	}

	rs = Residuals(p, runs, true)
	if rs[0].Value != 1 {
		t.Fatalf("got %v", rs[0].Value)
	}
	if math.Abs(rs[1].Value-2) > 1e-12 {
		t.Fatalf("got %v", rs[1].Value)
	}
}

func TestChi2(t *testing.T) {
	p, runs := testRuns()
	if got := Chi2(p, runs); math.Abs(got-5) > 1e-12 {
		t.Fatalf("got %v", got)
	}
}

func TestObservations(t *testing.T) {
	p := &core.Problem{
		FormatVersion: 2,
		Observables: map[string]*core.Observable{
			"obs_x": {
				ID:           "obs_x",
				Formula:      "X",
				NoiseFormula: "noiseParameter1_obs_x",
			},
		},
		Measurements: []*core.Measurement{
			{
				ObservableID:    "obs_x",
				Time:            5,
				Value:           2,
				NoiseParameters: []core.Override{{Ref: "sd_x"}},
			},
		},
		Parameters: []*core.Parameter{
			{ID: "sd_x", NominalValue: 0.5, HasNominal: true},
		},
	}
	m := model.NewMem(map[string]model.EntityKind{
		"X": model.Differential,
	}, nil)
	if err := p.Compile(context.Background(), m); err != nil {
		t.Fatal(err)
	}

	observations, err := Observations(p, []Simulation{
		{ObservableID: "obs_x", Time: 5, Value: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(observations) != 1 {
		t.Fatalf("got %v", observations)
	}
	o := observations[0]
	if o.Simulated != 3 || o.Sigma != 0.5 {
		t.Fatalf("got %+v", o)
	}
	want := -math.Log(math.Sqrt(2*math.Pi)*0.5) - (2-3)*(2-3)/(2*0.5*0.5)
	if math.Abs(o.LogDensity-want) > 1e-12 {
		t.Fatalf("got %v, wanted %v", o.LogDensity, want)
	}

	if _, err := Observations(p, nil); err == nil {
		t.Fatal("missing simulation row should have failed")
	}
}

func TestLogLikelihood(t *testing.T) {
	_, runs := testRuns()
	if got := LogLikelihood(runs); got != -2 {
		t.Fatalf("got %v", got)
	}

	runs = append(runs, &core.Run{StoppedBecause: core.SteadyStateFailed})
	if got := LogLikelihood(runs); !math.IsInf(got, -1) {
		t.Fatalf("got %v", got)
	}
}
