package tools

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/petab-dev/petab/core"
)

func testProblem() *core.Problem {
	return &core.Problem{
		Conditions: map[string]*core.Condition{
			"c_treat": {ID: "c_treat", TargetID: "k1", TargetValue: "2"},
		},
		Experiments: map[string]*core.Experiment{
			"e1": {ID: "e1", Periods: []core.Period{
				{Time: math.Inf(-1)},
				{Time: 0, ConditionIDs: []string{"c_treat"}},
			}},
		},
		Measurements: []*core.Measurement{
			{ObservableID: "obs_x", ExperimentID: "e1", Time: 0, Value: 1},
			{ObservableID: "obs_x", ExperimentID: "e1", Time: 10, Value: 2},
			{ObservableID: "obs_y", Time: 0, Value: 3},
		},
	}
}

func TestRenderOverviewHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderOverviewHTML(testProblem(), "A *small* problem.", &buf); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{"obs_x", "obs_y", "<em>small</em>", "(none)"} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in %s", want, html)
		}
	}
}

func TestRenderOverviewPage(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderOverviewPage(testProblem(), "boehm", "", &buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<h1>boehm</h1>") {
		t.Fatal(buf.String())
	}
}

func TestMermaid(t *testing.T) {
	p := testProblem()
	var buf bytes.Buffer
	if err := Mermaid(p, p.Experiments["e1"], &buf, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"graph LR", "steady state", "c_treat: k1 = 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}
