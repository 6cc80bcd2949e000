package store

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/kvshim/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates the db used by a store.
// It is called once per store, at construction time, and must not perform I/O.
type DBFactory func(namespace string) db.KVDB

// IStore is the interface a sync engine uses to persist its state.
// Every method may be called concurrently. The first call of GetItem, SetItem or
// GetDBInfo opens the underlying engine, later calls reuse it.
//
// Returned errors are of type *Error.
type IStore interface {
	// GetItem returns the value for a key. The boolean return value indicates whether
	// a value for the key was found. An empty stored value is returned as ("", true).
	GetItem(ctx context.Context, key string) (value string, loaded bool, err error)
	// SetItem inserts or replaces the value for a key.
	SetItem(ctx context.Context, key, value string) (err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
	// Close releases the underlying engine. Persisted data is kept.
	// Every operation after Close fails with RetCInvalidOperation.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and optionally the error that caused it.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The underlying error (may be nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("KVStoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the underlying error so errors.Is and errors.As see the engine error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new KVStoreError that carries err as its cause.
func WrapError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCInitFailed                          // 4: The underlying database could not be opened.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCInitFailed:
		return "InitFailed"
	default:
		return "Unknown"
	}
}
