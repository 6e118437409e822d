package core

// These errors are user errors: they indicate a malformed problem,
// not an internal failure.  They surface at load/validation time
// wherever possible so that a bad formula isn't discovered mid-run
// after expensive integration work.

import (
	"strconv"
)

// BadIdentifier occurs when a string doesn't match the identifier
// grammar [A-Za-z_][A-Za-z0-9_]*.
type BadIdentifier struct {
	ID string
}

func (e *BadIdentifier) Error() string {
	return `"` + e.ID + `" is not a valid identifier`
}

// ReservedIdentifier occurs when a reserved word or builtin function
// name is used as a user identifier.
type ReservedIdentifier struct {
	ID string
}

func (e *ReservedIdentifier) Error() string {
	return `"` + e.ID + `" is reserved`
}

// DuplicateIdentifier occurs when two tables (or a table and the
// model) both claim an identifier.  The namespace is global.
type DuplicateIdentifier struct {
	ID     string
	First  SymbolClass
	Second SymbolClass
}

func (e *DuplicateIdentifier) Error() string {
	return `duplicate identifier "` + e.ID + `" (` + e.First.String() + " and " + e.Second.String() + ")"
}

// UnknownSymbol occurs when an identifier doesn't resolve to
// anything in the problem.
type UnknownSymbol struct {
	ID string
}

func (e *UnknownSymbol) Error() string {
	return `unknown identifier "` + e.ID + `"`
}

// BadConditionTarget occurs when a condition targets something that
// cannot be assigned: an algebraic entity, a parameter-table
// parameter, or an unknown identifier.
type BadConditionTarget struct {
	ConditionID string
	TargetID    string
	Class       SymbolClass
}

func (e *BadConditionTarget) Error() string {
	return `condition "` + e.ConditionID + `" targets ` + e.Class.String() + ` "` + e.TargetID + `"`
}

// ConflictingAssignments occurs when two conditions applied at the
// same experiment time both target the same entity.
type ConflictingAssignments struct {
	ExperimentID string
	Time         float64
	TargetID     string
}

func (e *ConflictingAssignments) Error() string {
	return `conditions at time ` + fmtTime(e.Time) + ` of experiment "` + e.ExperimentID +
		`" both assign "` + e.TargetID + `"`
}

// BadPeriodTimes occurs when an experiment's period times aren't
// strictly increasing, or -inf appears anywhere but first.
type BadPeriodTimes struct {
	ExperimentID string
	Time         float64
}

func (e *BadPeriodTimes) Error() string {
	return `bad period time ` + fmtTime(e.Time) + ` in experiment "` + e.ExperimentID + `"`
}

// PlaceholderMismatch occurs when a measurement supplies a different
// number of override values than its observable declares.
type PlaceholderMismatch struct {
	ObservableID string
	Kind         string // "observable" or "noise"
	Want         int
	Got          int
}

func (e *PlaceholderMismatch) Error() string {
	return e.Kind + ` placeholder count for observable "` + e.ObservableID + `": want ` +
		strconv.Itoa(e.Want) + ", got " + strconv.Itoa(e.Got)
}

// MeasurementBeforeStart occurs when a measurement's time precedes
// the first finite period of its experiment.
type MeasurementBeforeStart struct {
	ObservableID string
	ExperimentID string
	Time         float64
}

func (e *MeasurementBeforeStart) Error() string {
	return `measurement of "` + e.ObservableID + `" at time ` + fmtTime(e.Time) +
		` precedes the start of experiment "` + e.ExperimentID + `"`
}

// ObservableReference occurs when an observable formula references
// another observable, which the v2 format forbids.
type ObservableReference struct {
	ObservableID string
	Referenced   string
}

func (e *ObservableReference) Error() string {
	return `observable "` + e.ObservableID + `" references observable "` + e.Referenced + `"`
}

// ForwardReference occurs when the very first period's condition
// target values reference entities that aren't in the parameter
// table, which would read not-yet-computed state.
type ForwardReference struct {
	ConditionID string
	ID          string
}

func (e *ForwardReference) Error() string {
	return `condition "` + e.ConditionID + `" references "` + e.ID +
		`" before model initialization`
}

// BadParameter occurs when a parameter row violates a table
// invariant.
type BadParameter struct {
	ParameterID string
	What        string
}

func (e *BadParameter) Error() string {
	return `parameter "` + e.ParameterID + `": ` + e.What
}

// NoiseDomain occurs when a noise log-density is evaluated outside
// its domain: a non-positive scale, or a log-scale distribution
// applied to a non-positive value.
type NoiseDomain struct {
	Distribution NoiseDistribution
	What         string
}

func (e *NoiseDomain) Error() string {
	return "noise distribution " + string(e.Distribution) + ": " + e.What
}

// UnknownExperiment occurs when a measurement references an
// experiment the problem doesn't define.
type UnknownExperiment struct {
	ExperimentID string
}

func (e *UnknownExperiment) Error() string {
	return `unknown experiment "` + e.ExperimentID + `"`
}

func fmtTime(t float64) string {
	return strconv.FormatFloat(t, 'g', -1, 64)
}
