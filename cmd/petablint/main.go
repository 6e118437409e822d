// petablint loads PEtab problems and reports the first thing wrong
// with each: unparsable formulas, unknown references, conflicting
// conditions, bad period orderings, placeholder mismatches.
//
// Usage:
//
//	petablint -m model.yaml problem.yaml [problem.yaml ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/petab-dev/petab/model"
	"github.com/petab-dev/petab/problem"
)

func main() {
	var (
		modelFilename = flag.String("m", "", "model filename (YAML)")
		verbose       = flag.Bool("v", false, "report per-table counts")
	)

	flag.Parse()

	if *modelFilename == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failed := false
	for _, filename := range flag.Args() {
		if err := lint(ctx, *modelFilename, filename, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
			failed = true
			continue
		}
		fmt.Printf("%s: ok\n", filename)
	}

	if failed {
		os.Exit(1)
	}
}

func lint(ctx context.Context, modelFilename, filename string, verbose bool) error {
	m, err := model.LoadMem(modelFilename)
	if err != nil {
		return err
	}

	p, err := problem.Load(filename)
	if err != nil {
		return err
	}

	if err = p.Compile(ctx, m); err != nil {
		return err
	}

	if verbose {
		fmt.Printf("%s: %d conditions, %d experiments, %d observables, %d measurements, %d parameters\n",
			filename, len(p.Conditions), len(p.Experiments), len(p.Observables),
			len(p.Measurements), len(p.Parameters))
	}

	return nil
}
