// petabsim simulates a PEtab problem's experiments and prints the
// results as YAML: the objective value and, optionally, residuals
// and chi-square.
//
// Example:
//
//	petabsim -m model.yaml -p problem.yaml -x '{"scale_A": 2}' -chi2
//
// With -cache, objective values are cached in a bbolt file keyed by
// the estimated-parameter vector, so repeated evaluations at the
// same point cost one read.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/petab-dev/petab/calculate"
	"github.com/petab-dev/petab/core"
	"github.com/petab-dev/petab/model"
	"github.com/petab-dev/petab/problem"
	"github.com/petab-dev/petab/storage"
	"github.com/petab-dev/petab/storage/bolt"

	"github.com/jsccast/yaml"
)

// Report is what petabsim prints.
type Report struct {
	Objective float64              `json:"objective" yaml:"objective"`
	Chi2      *float64             `json:"chi2,omitempty" yaml:"chi2,omitempty"`
	Residuals []calculate.Residual `json:"residuals,omitempty" yaml:"residuals,omitempty"`
	Runs      []*core.Run          `json:"runs,omitempty" yaml:"runs,omitempty"`
	Cached    bool                 `json:"cached,omitempty" yaml:"cached,omitempty"`
}

func main() {
	var (
		modelFilename   = flag.String("m", "", "model filename (YAML)")
		problemFilename = flag.String("p", "", "problem filename (YAML)")
		simsFilename    = flag.String("sims", "", "simulation table (TSV); skips model simulation")
		values          = flag.String("x", "{}", "estimated-parameter values (in JSON)")

		posterior  = flag.Bool("posterior", false, "include parameter priors in the objective")
		sequential = flag.Bool("seq", false, "run experiments sequentially")

		chi2      = flag.Bool("chi2", false, "report chi-square")
		residuals = flag.Bool("residuals", false, "report residuals")
		runs      = flag.Bool("runs", false, "report full runs")

		cacheFilename = flag.String("cache", "", "objective cache filename (bbolt)")
	)

	flag.Parse()

	if *modelFilename == "" || *problemFilename == "" {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var overrides map[string]float64
	if err := json.Unmarshal([]byte(*values), &overrides); err != nil {
		panic(err)
	}

	m, err := model.LoadMem(*modelFilename)
	if err != nil {
		panic(err)
	}

	p, err := problem.Load(*problemFilename)
	if err != nil {
		panic(err)
	}
	if err = p.Compile(ctx, m); err != nil {
		panic(err)
	}

	if *simsFilename != "" {
		sims, err := problem.LoadSimulations(*simsFilename)
		if err != nil {
			panic(err)
		}
		observations, err := calculate.Observations(p, sims)
		if err != nil {
			panic(err)
		}
		report := &Report{Objective: -calculate.LogLikelihoodOf(observations)}
		if *chi2 {
			v := calculate.Chi2Of(p, observations)
			report.Chi2 = &v
		}
		if *residuals {
			report.Residuals = calculate.ResidualsOf(p, observations, true)
		}
		emit(report)
		return
	}

	obj := &core.Objective{
		Problem:    p,
		NewModel:   func() model.Model { return m.Fork() },
		Posterior:  *posterior,
		Sequential: *sequential,
	}

	x := vector(p, overrides)
	key := storage.Key(p.EstimatedIDs(), x)
	cacheID := filepath.Base(*problemFilename)

	var store storage.Store
	if *cacheFilename != "" {
		s, err := bolt.NewStorage(*cacheFilename)
		if err != nil {
			panic(err)
		}
		if err = s.Open(ctx); err != nil {
			panic(err)
		}
		defer s.Close(ctx)
		store = s
	}

	report := &Report{}

	needRuns := *chi2 || *residuals || *runs
	if store != nil && !needRuns {
		entry, err := store.Get(ctx, cacheID, key)
		if err != nil {
			panic(err)
		}
		if entry != nil {
			report.Objective = entry.Objective
			report.Cached = true
			emit(report)
			return
		}
	}

	report.Objective, err = obj.Evaluate(ctx, x)
	if err != nil {
		panic(err)
	}

	if needRuns {
		all, err := obj.RunAll(ctx, obj.Vector(x))
		if err != nil {
			panic(err)
		}
		if *chi2 {
			v := calculate.Chi2(p, all)
			report.Chi2 = &v
		}
		if *residuals {
			report.Residuals = calculate.Residuals(p, all, true)
		}
		if *runs {
			report.Runs = all
		}
	}

	if store != nil {
		entry := &storage.Entry{
			Values:    estimated(p, overrides),
			Objective: report.Objective,
		}
		if err = store.Put(ctx, cacheID, key, entry); err != nil {
			panic(err)
		}
	}

	emit(report)
}

// vector lays the given values out as the estimated-parameter
// vector, with nominal values filling the gaps.
func vector(p *core.Problem, overrides map[string]float64) []float64 {
	ids := p.EstimatedIDs()
	x := make([]float64, len(ids))
	for i, id := range ids {
		if v, have := overrides[id]; have {
			x[i] = v
		} else if par, have := p.Param(id); have {
			x[i] = par.NominalValue
		}
	}
	return x
}

func estimated(p *core.Problem, overrides map[string]float64) map[string]float64 {
	ids := p.EstimatedIDs()
	x := vector(p, overrides)
	acc := make(map[string]float64, len(ids))
	for i, id := range ids {
		acc[id] = x[i]
	}
	return acc
}

func emit(report *Report) {
	bs, err := yaml.Marshal(report)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s", bs)
}
