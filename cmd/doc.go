// Package cmd implements the command-line interface of qmx. It provides a
// hierarchical command structure over a local data directory.
//
// The package is organized into several subpackages:
//
//   - student: Commands to add, list, update and delete students
//   - cash: Commands to record, list and delete income and expenses
//   - plan: Commands for installment plans (create, next, cancel, overdue, upcoming, pay)
//   - stats: Dashboard, per student and financial reports, store metrics
//   - export: Export of a store as json or yaml
//   - perf: Benchmarks against a scratch database
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as an environment variable QMX_<FLAG>, e.g.
// QMX_DATA_DIR=/var/lib/qmx. Variables are also read from .env and .env.local.
//
// See qmx -help for a list of all commands.
package cmd
