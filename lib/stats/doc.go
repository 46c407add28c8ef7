// Package stats aggregates student and cash records into dashboard,
// per-student and financial reports.
//
// All functions read the stores through their iteration contract and never
// mutate them; callers provide the reference time so that reports are
// reproducible.
package stats
