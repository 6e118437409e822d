// Package problem loads PEtab problems from disk: a YAML problem
// file naming the tables, plus the tab-separated tables themselves.
package problem

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/petab-dev/petab/calculate"
	"github.com/petab-dev/petab/core"
)

// Config mirrors the PEtab problem YAML file.
type Config struct {
	FormatVersion string  `yaml:"format_version"`
	ParameterFile string  `yaml:"parameter_file"`
	Problems      []Files `yaml:"problems"`
}

// Files is one table group within a problem file.
type Files struct {
	ConditionFiles   []string `yaml:"condition_files"`
	ExperimentFiles  []string `yaml:"experiment_files"`
	MeasurementFiles []string `yaml:"measurement_files"`
	ObservableFiles  []string `yaml:"observable_files"`
	MappingFiles     []string `yaml:"mapping_files"`
}

// MajorVersion extracts the leading integer of a format_version
// string like "2.0.0".
func MajorVersion(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad format_version %q", s)
	}
	return n, nil
}

// Load reads a problem YAML file and every table it names.  Paths in
// the file are relative to the file's directory.
//
// The returned Problem is not yet compiled; the caller compiles it
// against a model.
func Load(filename string) (*core.Problem, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err = yaml.Unmarshal(bs, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %v", filename, err)
	}

	version, err := MajorVersion(cfg.FormatVersion)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", filename, err)
	}

	dir := filepath.Dir(filename)

	p := &core.Problem{
		FormatVersion: version,
		Conditions:    make(map[string]*core.Condition),
		Experiments:   make(map[string]*core.Experiment),
		Observables:   make(map[string]*core.Observable),
		Mappings:      make(map[string]string),
	}

	if cfg.ParameterFile != "" {
		if err = loadParameters(p, filepath.Join(dir, cfg.ParameterFile)); err != nil {
			return nil, err
		}
	}

	for _, fs := range cfg.Problems {
		for _, f := range fs.ConditionFiles {
			if err = loadConditions(p, filepath.Join(dir, f)); err != nil {
				return nil, err
			}
		}
		for _, f := range fs.ExperimentFiles {
			if err = loadExperiments(p, filepath.Join(dir, f)); err != nil {
				return nil, err
			}
		}
		for _, f := range fs.ObservableFiles {
			if err = loadObservables(p, filepath.Join(dir, f)); err != nil {
				return nil, err
			}
		}
		for _, f := range fs.MeasurementFiles {
			if err = loadMeasurements(p, filepath.Join(dir, f)); err != nil {
				return nil, err
			}
		}
		for _, f := range fs.MappingFiles {
			if err = loadMappings(p, filepath.Join(dir, f)); err != nil {
				return nil, err
			}
		}
	}

	return p, nil
}

func loadConditions(p *core.Problem, filename string) error {
	rows, err := readTable(filename)
	if err != nil {
		return err
	}
	for _, row := range rows {
		id, err := row.get("conditionId")
		if err != nil {
			return err
		}
		target, err := row.get("targetId")
		if err != nil {
			return err
		}
		value, err := row.get("targetValue")
		if err != nil {
			return err
		}
		// One condition may assign several targets, one row per
		// target.  Rows sharing a conditionId become separate
		// internal conditions keyed "id#target"; the experiment
		// loader expands a conditionId reference to all of them.
		key := id
		if _, have := p.Conditions[key]; have {
			key = id + "#" + target
			if _, have := p.Conditions[key]; have {
				return row.badf("duplicate condition row %s/%s", id, target)
			}
		}
		p.Conditions[key] = &core.Condition{
			ID:          id,
			TargetID:    target,
			TargetValue: value,
		}
	}
	return nil
}

func loadExperiments(p *core.Problem, filename string) error {
	rows, err := readTable(filename)
	if err != nil {
		return err
	}

	times := make(map[string][]float64)
	conditions := make(map[string][]string)
	order := []string{}
	for _, row := range rows {
		id, err := row.get("experimentId")
		if err != nil {
			return err
		}
		ts, err := row.get("time")
		if err != nil {
			return err
		}
		t, err := strconv.ParseFloat(ts, 64)
		if err != nil {
			return row.badf("bad time %q", ts)
		}
		cid := row.opt("conditionId")

		if _, have := times[id]; !have {
			order = append(order, id)
		}
		if cid != "" {
			for _, key := range conditionKeys(p, cid) {
				times[id] = append(times[id], t)
				conditions[id] = append(conditions[id], key)
			}
		} else {
			times[id] = append(times[id], t)
			conditions[id] = append(conditions[id], "")
		}
	}

	for _, id := range order {
		p.Experiments[id] = core.NewExperiment(id, times[id], conditions[id])
	}
	return nil
}

// conditionKeys returns the internal keys of every condition row
// sharing the given conditionId.
func conditionKeys(p *core.Problem, id string) []string {
	acc := []string{}
	for key, c := range p.Conditions {
		if c.ID == id {
			acc = append(acc, key)
		}
	}
	if len(acc) == 0 {
		// Leave the reference dangling for Compile to report.
		acc = append(acc, id)
	}
	return acc
}

func loadObservables(p *core.Problem, filename string) error {
	rows, err := readTable(filename)
	if err != nil {
		return err
	}
	for _, row := range rows {
		id, err := row.get("observableId")
		if err != nil {
			return err
		}
		formula, err := row.get("observableFormula")
		if err != nil {
			return err
		}
		p.Observables[id] = &core.Observable{
			ID:                id,
			Formula:           formula,
			NoiseFormula:      row.opt("noiseFormula"),
			NoiseDistribution: core.NoiseDistribution(row.opt("noiseDistribution")),
		}
	}
	return nil
}

func loadMeasurements(p *core.Problem, filename string) error {
	rows, err := readTable(filename)
	if err != nil {
		return err
	}
	for _, row := range rows {
		obsID, err := row.get("observableId")
		if err != nil {
			return err
		}
		ts, err := row.get("time")
		if err != nil {
			return err
		}
		t, err := strconv.ParseFloat(ts, 64)
		if err != nil {
			return row.badf("bad time %q", ts)
		}
		vs, err := row.get("measurement")
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(vs, 64)
		if err != nil {
			return row.badf("bad measurement %q", vs)
		}

		obsPars, err := core.ParseOverrides(row.opt("observableParameters"))
		if err != nil {
			return row.badf("%v", err)
		}
		noisePars, err := core.ParseOverrides(row.opt("noiseParameters"))
		if err != nil {
			return row.badf("%v", err)
		}

		p.Measurements = append(p.Measurements, &core.Measurement{
			ObservableID:         obsID,
			ExperimentID:         row.opt("experimentId"),
			Time:                 t,
			Value:                v,
			ObservableParameters: obsPars,
			NoiseParameters:      noisePars,
		})
	}
	return nil
}

func loadParameters(p *core.Problem, filename string) error {
	rows, err := readTable(filename)
	if err != nil {
		return err
	}
	for _, row := range rows {
		id, err := row.get("parameterId")
		if err != nil {
			return err
		}
		par := &core.Parameter{ID: id}

		if s := row.opt("estimate"); s != "" {
			b, err := parseBool(s)
			if err != nil {
				return row.badf("bad estimate %q", s)
			}
			par.Estimate = b
		}
		if s := row.opt("nominalValue"); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return row.badf("bad nominalValue %q", s)
			}
			par.NominalValue = v
			par.HasNominal = true
		}
		if s := row.opt("lowerBound"); s != "" {
			if par.LowerBound, err = strconv.ParseFloat(s, 64); err != nil {
				return row.badf("bad lowerBound %q", s)
			}
		}
		if s := row.opt("upperBound"); s != "" {
			if par.UpperBound, err = strconv.ParseFloat(s, 64); err != nil {
				return row.badf("bad upperBound %q", s)
			}
		}

		if s := row.opt("priorDistribution"); s != "" {
			prior := &core.Prior{Distribution: core.PriorDistribution(s)}
			for _, f := range strings.Split(row.opt("priorParameters"), ";") {
				f = strings.TrimSpace(f)
				if f == "" {
					continue
				}
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return row.badf("bad prior parameter %q", f)
				}
				prior.Parameters = append(prior.Parameters, v)
			}
			par.Prior = prior
		}

		p.Parameters = append(p.Parameters, par)
	}
	return nil
}

func loadMappings(p *core.Problem, filename string) error {
	rows, err := readTable(filename)
	if err != nil {
		return err
	}
	for _, row := range rows {
		alias, err := row.get("petabEntityId")
		if err != nil {
			return err
		}
		target, err := row.get("modelEntityId")
		if err != nil {
			return err
		}
		p.Mappings[alias] = target
	}
	return nil
}

// LoadSimulations reads a simulation table: like a measurement table
// but with a simulation column.
func LoadSimulations(filename string) ([]calculate.Simulation, error) {
	rows, err := readTable(filename)
	if err != nil {
		return nil, err
	}
	acc := make([]calculate.Simulation, 0, len(rows))
	for _, row := range rows {
		obsID, err := row.get("observableId")
		if err != nil {
			return nil, err
		}
		ts, err := row.get("time")
		if err != nil {
			return nil, err
		}
		t, err := strconv.ParseFloat(ts, 64)
		if err != nil {
			return nil, row.badf("bad time %q", ts)
		}
		vs, err := row.get("simulation")
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(vs, 64)
		if err != nil {
			return nil, row.badf("bad simulation %q", vs)
		}
		acc = append(acc, calculate.Simulation{
			ObservableID: obsID,
			ExperimentID: row.opt("experimentId"),
			Time:         t,
			Value:        v,
		})
	}
	return acc, nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "1", "true", "True", "TRUE":
		return true, nil
	case "0", "false", "False", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("bad boolean %q", s)
}
