package util

import "log"

// Logging turns on Logf.
//
// Simulation code calls Logf at the interesting transitions (period
// boundaries, condition assignments, steady-state searches), so
// flipping this switch traces a run without any other plumbing.
var Logging = false

// Logf forwards to log.Printf when Logging is set and is otherwise a
// no-op.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	log.Printf(format, args...)
}
