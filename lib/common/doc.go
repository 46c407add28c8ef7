// Package common holds the pieces shared by the library packages and the CLI:
// the logger factory plugged into dragonboat's logger registry and the
// database configuration.
//
// Every package obtains its logger with logger.GetLogger("<name>"). Until
// InitLoggers is called those loggers use dragonboat's default backend; after
// the call they print lines of the form
//
//	2025/01/02 15:04:05 INFO  | store      | saved 12 cash records to data/cash_database.json
//
// The Config type resolves the on-disk layout of a data directory:
//
//	<data-dir>/<kind>_database.json   records of one kind, keyed by uid
//	<data-dir>/<kind>_uid_counter     last issued uid of that kind
package common
