package core

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/petab-dev/petab/expr"
	"github.com/petab-dev/petab/model"
)

// Condition is a named override of one model entity.
//
// TargetValue is the source text of a math expression; Compile
// parses it once so evaluation doesn't re-parse in the simulation
// loop.
type Condition struct {
	ID          string  `json:"conditionId" yaml:"conditionId"`
	TargetID    string  `json:"targetId" yaml:"targetId"`
	TargetValue string  `json:"targetValue" yaml:"targetValue"`

	target expr.Node
}

// Target returns the compiled targetValue expression.
func (c *Condition) Target() expr.Node {
	return c.target
}

// Period is one segment of an experiment: a start time and the
// conditions applied simultaneously at that time.
//
// A Time of -inf means "simulate to steady state first" and may only
// be an experiment's first period.
type Period struct {
	Time         float64  `json:"time" yaml:"time"`
	ConditionIDs []string `json:"conditionIds" yaml:"conditionIds"`
}

// Experiment is an ordered sequence of Periods sharing an id.
type Experiment struct {
	ID      string   `json:"experimentId" yaml:"experimentId"`
	Periods []Period `json:"periods" yaml:"periods"`
}

// NewExperiment groups (time, conditionId) rows into Periods by
// time.  An empty conditionId contributes a period with no
// conditions.  Ordering and -inf placement are checked during
// Compile.
func NewExperiment(id string, times []float64, conditionIDs []string) *Experiment {
	byTime := make(map[float64][]string)
	order := make([]float64, 0, len(times))
	for i, t := range times {
		if _, have := byTime[t]; !have {
			order = append(order, t)
			byTime[t] = nil
		}
		if conditionIDs[i] != "" {
			byTime[t] = append(byTime[t], conditionIDs[i])
		}
	}
	sort.Float64s(order)
	e := &Experiment{ID: id}
	for _, t := range order {
		e.Periods = append(e.Periods, Period{Time: t, ConditionIDs: byTime[t]})
	}
	return e
}

// Start returns the first finite period time, which is where
// simulated time begins after any steady-state pre-equilibration.
func (e *Experiment) Start() float64 {
	for _, p := range e.Periods {
		if !math.IsInf(p.Time, -1) {
			return p.Time
		}
	}
	return 0
}

// NoiseDistribution tags a measurement noise model.
type NoiseDistribution string

const (
	NoiseNormal       NoiseDistribution = "normal"
	NoiseLogNormal    NoiseDistribution = "log-normal"
	NoiseLog10Normal  NoiseDistribution = "log10-normal"
	NoiseLaplace      NoiseDistribution = "laplace"
	NoiseLogLaplace   NoiseDistribution = "log-laplace"
	NoiseLog10Laplace NoiseDistribution = "log10-laplace"
)

// KnownNoiseDistribution reports whether d is one of the six
// supported tags.  The empty tag means NoiseNormal.
func KnownNoiseDistribution(d NoiseDistribution) bool {
	switch d {
	case "", NoiseNormal, NoiseLogNormal, NoiseLog10Normal,
		NoiseLaplace, NoiseLogLaplace, NoiseLog10Laplace:
		return true
	}
	return false
}

// Observable is a scalar function of model state compared against
// measured data, together with its noise model.
type Observable struct {
	ID                string            `json:"observableId" yaml:"observableId"`
	Formula           string            `json:"observableFormula" yaml:"observableFormula"`
	NoiseFormula      string            `json:"noiseFormula" yaml:"noiseFormula"`
	NoiseDistribution NoiseDistribution `json:"noiseDistribution,omitempty" yaml:"noiseDistribution,omitempty"`

	formula      expr.Node
	noise        expr.Node
	placeholders []string // observableParameterN_<id>, in order
	noisePHs     []string // noiseParameterN_<id>, in order
}

// CompiledFormula returns the parsed observable formula.
func (o *Observable) CompiledFormula() expr.Node {
	return o.formula
}

// CompiledNoise returns the parsed noise formula, or nil if none.
func (o *Observable) CompiledNoise() expr.Node {
	return o.noise
}

// Placeholders returns the declared observable placeholders in
// positional order.
func (o *Observable) Placeholders() []string {
	return o.placeholders
}

// NoisePlaceholders returns the declared noise placeholders in
// positional order.
func (o *Observable) NoisePlaceholders() []string {
	return o.noisePHs
}

// Override is a per-measurement value for a placeholder: either a
// literal number or a reference to a parameter-table parameter.
type Override struct {
	Num float64
	Ref string // parameter id; "" for a literal
}

// ParseOverrides parses a semicolon-separated override list
// ("0.1;sd_x") into Overrides.  An empty string means no overrides.
func ParseOverrides(s string) ([]Override, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	acc := make([]Override, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if v, err := strconv.ParseFloat(p, 64); err == nil {
			acc = append(acc, Override{Num: v})
			continue
		}
		if !ValidID(p) {
			return nil, &BadIdentifier{ID: p}
		}
		acc = append(acc, Override{Ref: p})
	}
	return acc, nil
}

// Measurement is one measured data point.
type Measurement struct {
	ObservableID string  `json:"observableId" yaml:"observableId"`
	ExperimentID string  `json:"experimentId,omitempty" yaml:"experimentId,omitempty"`
	Time         float64 `json:"time" yaml:"time"`
	Value        float64 `json:"measurement" yaml:"measurement"`

	ObservableParameters []Override `json:"observableParameters,omitempty" yaml:"observableParameters,omitempty"`
	NoiseParameters      []Override `json:"noiseParameters,omitempty" yaml:"noiseParameters,omitempty"`
}

// PriorDistribution tags a parameter prior.
type PriorDistribution string

const (
	PriorUniform    PriorDistribution = "uniform"
	PriorNormal     PriorDistribution = "normal"
	PriorLaplace    PriorDistribution = "laplace"
	PriorLogNormal  PriorDistribution = "logNormal"
	PriorLogLaplace PriorDistribution = "logLaplace"
)

// Prior is a parameter prior, truncated to the parameter's bounds.
type Prior struct {
	Distribution PriorDistribution `json:"distribution" yaml:"distribution"`
	Parameters   []float64         `json:"parameters" yaml:"parameters"`
}

// Parameter is one parameter-table row.
type Parameter struct {
	ID           string  `json:"parameterId" yaml:"parameterId"`
	LowerBound   float64 `json:"lowerBound,omitempty" yaml:"lowerBound,omitempty"`
	UpperBound   float64 `json:"upperBound,omitempty" yaml:"upperBound,omitempty"`
	NominalValue float64 `json:"nominalValue,omitempty" yaml:"nominalValue,omitempty"`
	HasNominal   bool    `json:"-" yaml:"-"`
	Estimate     bool    `json:"estimate" yaml:"estimate"`
	Prior        *Prior  `json:"prior,omitempty" yaml:"prior,omitempty"`
}

func (p *Parameter) validate() error {
	if p.Estimate {
		if p.LowerBound >= p.UpperBound {
			return &BadParameter{ParameterID: p.ID, What: "estimated but bounds are not an interval"}
		}
	} else if !p.HasNominal {
		return &BadParameter{ParameterID: p.ID, What: "estimate is false but no nominal value"}
	}
	return nil
}

// Problem is a fully loaded PEtab problem: every record of every
// table, plus the registry that ties the namespace together.
//
// A Problem must be Compiled before use.  Compilation parses every
// formula once, populates the Registry, and runs all static
// validation, so nothing syntactic or referential can fail later in
// the simulation loop.
type Problem struct {
	// FormatVersion selects semantics where v1 and v2 diverge.
	// Version 1 forbids bool/float coercion in expressions;
	// version 2 allows it.
	FormatVersion int

	Conditions   map[string]*Condition
	Experiments  map[string]*Experiment
	Observables  map[string]*Observable
	Measurements []*Measurement

	// Parameters preserves the parameter table's row order,
	// which fixes the layout of the estimated-parameter vector.
	Parameters []*Parameter

	// Mappings are mapping-table rows: alias -> model entity.
	Mappings map[string]string

	Registry *Registry

	params   map[string]*Parameter
	compiled bool
}

// Param looks up a parameter by id.
func (p *Problem) Param(id string) (*Parameter, bool) {
	mp, have := p.params[id]
	return mp, have
}

// EstimatedIDs returns the ids of estimate=true parameters in table
// order.  This is the layout of the objective's parameter vector.
func (p *Problem) EstimatedIDs() []string {
	acc := []string{}
	for _, par := range p.Parameters {
		if par.Estimate {
			acc = append(acc, par.ID)
		}
	}
	return acc
}

// EvalOptions returns the expression semantics for this problem's
// format version.
func (p *Problem) EvalOptions() *expr.Options {
	return &expr.Options{Strict: p.FormatVersion < 2}
}

// Compile parses every formula, builds the Registry against the
// given model, and validates all table invariants.
//
// Errors found here are user errors.  After a successful Compile,
// the only failure a Run can hit is a genuine evaluation problem
// (e.g. the log of a negative intermediate) or a non-converging
// steady-state search.
func (p *Problem) Compile(ctx context.Context, m model.Model) error {
	reg := NewRegistry()
	if err := reg.RegisterEntities(m); err != nil {
		return err
	}

	p.params = make(map[string]*Parameter, len(p.Parameters))
	for _, par := range p.Parameters {
		if err := par.validate(); err != nil {
			return err
		}
		if err := reg.Register(par.ID, SymParameter); err != nil {
			return err
		}
		p.params[par.ID] = par
	}

	for id := range p.Observables {
		if err := reg.Register(id, SymObservable); err != nil {
			return err
		}
	}

	for alias, target := range p.Mappings {
		if err := reg.RegisterAlias(alias, target); err != nil {
			return err
		}
	}

	p.Registry = reg

	if err := p.compileObservables(reg); err != nil {
		return err
	}
	if err := p.compileConditions(reg); err != nil {
		return err
	}
	if err := p.validateExperiments(); err != nil {
		return err
	}
	if err := p.validateMeasurements(); err != nil {
		return err
	}

	p.compiled = true
	return nil
}

func (p *Problem) compileObservables(reg *Registry) error {
	for id, obs := range p.Observables {
		n, err := expr.Parse(obs.Formula)
		if err != nil {
			return err
		}
		if err := expr.Check(n); err != nil {
			return err
		}
		obs.formula = n

		if obs.NoiseFormula != "" {
			nn, err := expr.Parse(obs.NoiseFormula)
			if err != nil {
				return err
			}
			if err := expr.Check(nn); err != nil {
				return err
			}
			obs.noise = nn
		}

		if !KnownNoiseDistribution(obs.NoiseDistribution) {
			return &NoiseDomain{Distribution: obs.NoiseDistribution, What: "unknown distribution"}
		}

		if obs.placeholders, err = placeholderNames(obs.formula, "observable", id); err != nil {
			return err
		}
		if obs.noisePHs, err = placeholderNames(obs.noise, "noise", id); err != nil {
			return err
		}

		// An observable formula must not reference other
		// observables (v2; v1 never allowed such references
		// to resolve anyway).  Everything else it references
		// must resolve somewhere.
		for _, ref := range expr.Idents(obs.formula, nil) {
			if ref == "time" || contains(obs.placeholders, ref) {
				continue
			}
			class, err := reg.ResolveTarget(ref)
			if err != nil {
				return err
			}
			if class == SymObservable {
				return &ObservableReference{ObservableID: id, Referenced: ref}
			}
		}

		// A noise formula may additionally reference its own
		// observable (e.g. proportional noise), but no other.
		if obs.noise != nil {
			for _, ref := range expr.Idents(obs.noise, nil) {
				if ref == "time" || ref == id || contains(obs.noisePHs, ref) {
					continue
				}
				class, err := reg.ResolveTarget(ref)
				if err != nil {
					return err
				}
				if class == SymObservable {
					return &ObservableReference{ObservableID: id, Referenced: ref}
				}
			}
		}
	}
	return nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func (p *Problem) compileConditions(reg *Registry) error {
	for id, c := range p.Conditions {
		if c.ID == "" {
			c.ID = id
		}
		class, err := reg.ResolveTarget(c.TargetID)
		if err != nil {
			return err
		}
		switch class {
		case SymConstant, SymDifferential:
			// Assignable.
		default:
			return &BadConditionTarget{ConditionID: id, TargetID: c.TargetID, Class: class}
		}

		n, err := expr.Parse(c.TargetValue)
		if err != nil {
			return err
		}
		if err := expr.Check(n); err != nil {
			return err
		}
		for _, ref := range expr.Idents(n, nil) {
			if ref == "time" {
				continue
			}
			if _, err := reg.ResolveTarget(ref); err != nil {
				return err
			}
		}
		c.target = n
	}
	return nil
}

func (p *Problem) validateExperiments() error {
	for id, e := range p.Experiments {
		if e.ID == "" {
			e.ID = id
		}
		prev := math.Inf(-1)
		for i, period := range e.Periods {
			if math.IsInf(period.Time, -1) && i != 0 {
				return &BadPeriodTimes{ExperimentID: id, Time: period.Time}
			}
			if i > 0 && period.Time <= prev {
				return &BadPeriodTimes{ExperimentID: id, Time: period.Time}
			}
			prev = period.Time

			// Simultaneous conditions must have disjoint
			// targets.
			targets := make(map[string]bool, len(period.ConditionIDs))
			for _, cid := range period.ConditionIDs {
				c, have := p.Conditions[cid]
				if !have {
					return &UnknownSymbol{ID: cid}
				}
				target := p.Registry.Canonical(c.TargetID)
				if targets[target] {
					return &ConflictingAssignments{
						ExperimentID: id,
						Time:         period.Time,
						TargetID:     target,
					}
				}
				targets[target] = true
			}
		}

		// The first period runs before the model's own
		// initialization, so its target values may reference
		// only parameter-table entities (and time).
		if len(e.Periods) > 0 {
			for _, cid := range e.Periods[0].ConditionIDs {
				c := p.Conditions[cid]
				for _, ref := range expr.Idents(c.target, nil) {
					if ref == "time" {
						continue
					}
					if _, have := p.params[p.Registry.Canonical(ref)]; !have {
						return &ForwardReference{ConditionID: cid, ID: ref}
					}
				}
			}
		}
	}
	return nil
}

func (p *Problem) validateMeasurements() error {
	for _, ms := range p.Measurements {
		obs, have := p.Observables[ms.ObservableID]
		if !have {
			return &UnknownSymbol{ID: ms.ObservableID}
		}

		if want, got := len(obs.placeholders), len(ms.ObservableParameters); want != got {
			return &PlaceholderMismatch{ObservableID: obs.ID, Kind: "observable", Want: want, Got: got}
		}
		if want, got := len(obs.noisePHs), len(ms.NoiseParameters); want != got {
			return &PlaceholderMismatch{ObservableID: obs.ID, Kind: "noise", Want: want, Got: got}
		}

		for _, ov := range append(append([]Override{}, ms.ObservableParameters...), ms.NoiseParameters...) {
			if ov.Ref == "" {
				continue
			}
			if _, have := p.params[ov.Ref]; !have {
				return &UnknownSymbol{ID: ov.Ref}
			}
		}

		if ms.ExperimentID != "" {
			e, have := p.Experiments[ms.ExperimentID]
			if !have {
				return &UnknownExperiment{ExperimentID: ms.ExperimentID}
			}
			if ms.Time < e.Start() {
				return &MeasurementBeforeStart{
					ObservableID: ms.ObservableID,
					ExperimentID: ms.ExperimentID,
					Time:         ms.Time,
				}
			}
		}
	}
	return nil
}

// placeholderNames extracts <kind>ParameterN_<obsID> identifiers
// from a formula and checks that the numbering is consecutive from
// 1 (original PEtab convention).
func placeholderNames(n expr.Node, kind, obsID string) ([]string, error) {
	if n == nil {
		return nil, nil
	}
	prefix := kind + "Parameter"
	suffix := "_" + obsID

	found := make(map[int]bool)
	for _, ref := range expr.Idents(n, nil) {
		if !strings.HasPrefix(ref, prefix) || !strings.HasSuffix(ref, suffix) {
			continue
		}
		mid := ref[len(prefix) : len(ref)-len(suffix)]
		num, err := strconv.Atoi(mid)
		if err != nil || num < 1 {
			continue
		}
		found[num] = true
	}

	acc := make([]string, 0, len(found))
	for i := 1; i <= len(found); i++ {
		if !found[i] {
			return nil, &PlaceholderMismatch{ObservableID: obsID, Kind: kind, Want: len(found), Got: i - 1}
		}
		acc = append(acc, prefix+strconv.Itoa(i)+suffix)
	}
	return acc, nil
}
