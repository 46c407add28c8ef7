// Package student defines the student profile record and its store.
//
// Students are kept in a store.Store and persisted to
// <data dir>/student_database.json. Class and Subject are closed string
// enums; unknown values are rejected when decoding.
package student
