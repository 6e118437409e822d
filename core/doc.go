// Package core provides the gear for interpreting PEtab
// parameter-estimation problems: the problem records (conditions,
// experiments, observables, measurements, parameters), the global
// symbol registry, the condition/experiment engine, and the noise
// model.
//
// The primary type is Runner, and the primary method is Run().  A
// Runner drives one experiment period by period.  At every period
// boundary it executes a five-phase update: evaluate the period's
// condition target values, assign them simultaneously, recompute
// derived model state, apply model events, and finally evaluate
// observables for any measurements at that time.
//
// The Runner does no numerical integration itself.  Time advancement
// is delegated to a model.Model, an opaque handle that any model
// format (SBML, CellML, BNGL, ...) can implement.
//
// Objective assembles Runs over all experiments referenced by
// measurements and sums the per-measurement noise log-densities into
// a negative log-likelihood, optionally with parameter priors added
// for a negative log-posterior.
//
// Errors that a well-formed problem cannot produce (syntax errors,
// unknown identifiers, conflicting assignments) surface at
// validation time, before any simulation work.  A failed
// steady-state search is not an error: it's data, propagated as a
// non-finite objective value.
package core
