// Package petab provides an interpreter core for PEtab
// parameter-estimation problems over dynamical biological models.
//
// The expression language lives in package 'expr', the
// condition/experiment engine in package 'core', and some
// command-line tools are in `cmd`.
//
// See https://github.com/petab-dev/petab/blob/master/README.md for more.
package petab
