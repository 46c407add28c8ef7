package store

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Record Identity
// --------------------------------------------------------------------------

// Entity is implemented by every record a Store can hold. Records satisfy it
// by embedding Identity, which is the only way to obtain the unexported
// method; this keeps identifier assignment inside this package.
type Entity interface {
	// UID returns the identifier the store assigned to the record, or 0 if
	// the record was never inserted or bound.
	UID() uint64
	identity() *Identity
}

// Identity carries the identifier of a record. Embed it by value:
//
//	type Student struct {
//		store.Identity
//		Name string `json:"name"`
//	}
//
// The identifier is not part of the record's JSON representation; on disk it
// is the key the record is stored under.
type Identity struct {
	uid uint64
}

// UID returns the record identifier
func (i *Identity) UID() uint64 {
	return i.uid
}

func (i *Identity) identity() *Identity {
	return i
}

// Bind sets the identifier of a record that is not held by any store.
// It is reserved for deserialization and migration: a record bound to a
// nonzero uid keeps that uid when inserted, and the store raises its counter
// accordingly. Binding a record that is already indexed corrupts the index.
func Bind(rec Entity, uid uint64) {
	rec.identity().uid = uid
}

// --------------------------------------------------------------------------
// Mutation Results
// --------------------------------------------------------------------------

// MutationResult is returned by the callbacks passed to Update and
// UpdateBatch.
type MutationResult uint8

const (
	// Applied means the record was changed and counts towards the batch result.
	Applied MutationResult = iota
	// Skipped means the callback rejected the record (e.g. validation failed).
	// Callbacks must leave the record unchanged when returning Skipped.
	Skipped
	// NotFound is produced by the store for ids without a record. Callbacks
	// never see absent ids.
	NotFound
)

func (r MutationResult) String() string {
	switch r {
	case Applied:
		return "Applied"
	case Skipped:
		return "Skipped"
	case NotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and optionally the underlying cause.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
	Err  error   // The cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("store error (%s)", e.Code)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code. A target without a message (such as
// ErrNotFound) matches every error with its code, a target with a message
// only matches errors carrying the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code != e.Code {
		return false
	}
	return t.Msg == "" || t.Msg == e.Msg
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new Error with the given code and message around err.
func WrapError(code RetCode, err error, format string, args ...any) *Error {
	return &Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}

// Sentinels for errors.Is, one per code
var (
	ErrIO         = &Error{Code: RetCIOError}
	ErrParse      = &Error{Code: RetCParseError}
	ErrNotFound   = &Error{Code: RetCNotFound}
	ErrValidation = &Error{Code: RetCValidation}
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess    RetCode = iota // 0: Operation executed successfully.
	RetCIOError                   // 1: Creating, writing, syncing or renaming a file failed.
	RetCParseError                // 2: Serialized input could not be decoded.
	RetCNotFound                  // 3: A file or record does not exist.
	RetCValidation                // 4: A value or operation was rejected.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCIOError:
		return "IOError"
	case RetCParseError:
		return "ParseError"
	case RetCNotFound:
		return "NotFound"
	case RetCValidation:
		return "Validation"
	default:
		return "Unknown"
	}
}
