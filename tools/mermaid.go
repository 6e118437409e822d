package tools

import (
	"fmt"
	"io"
	"math"

	"github.com/petab-dev/petab/core"
)

type MermaidOpts struct {
	// ShowTargets adds each condition's target assignment to its
	// node label.
	ShowTargets bool `json:"showTargets"`

	// PeriodFill is the fill color for period nodes.
	PeriodFill string `json:"periodFill,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// showing an experiment's timeline: one node per period, linked in
// time order, with the conditions each period applies.
func Mermaid(p *core.Problem, e *core.Experiment, w io.Writer, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			ShowTargets: true,
			PeriodFill:  "#bcf2db",
		}
	}

	fmt.Fprintf(w, "graph LR\n")

	num := 0
	node := func(label string, period bool) string {
		num++
		nid := fmt.Sprintf("n%d", num)
		if period {
			fmt.Fprintf(w, "  %s[\"%s\"]\n", nid, label)
			if opts.PeriodFill != "" {
				fmt.Fprintf(w, "  style %s fill:%s\n", nid, opts.PeriodFill)
			}
		} else {
			fmt.Fprintf(w, "  %s(\"%s\")\n", nid, label)
		}
		return nid
	}

	prev := ""
	for _, period := range e.Periods {
		label := fmt.Sprintf("t = %v", period.Time)
		if math.IsInf(period.Time, -1) {
			label = "steady state"
		}
		nid := node(label, true)

		for _, cid := range period.ConditionIDs {
			c := p.Conditions[cid]
			clabel := c.ID
			if opts.ShowTargets {
				clabel = fmt.Sprintf("%s: %s = %s", c.ID, c.TargetID, c.TargetValue)
			}
			cn := node(clabel, false)
			fmt.Fprintf(w, "  %s --> %s\n", cn, nid)
		}

		if prev != "" {
			fmt.Fprintf(w, "  %s --> %s\n", prev, nid)
		}
		prev = nid
	}

	fmt.Fprintf(w, "\n")
	return nil
}
