package ygggo_db

import (
	"database/sql/driver"
	"errors"
	"net"

	mysql "github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors matched by errors.Is against a *QueryError.
var (
	ErrNotConfigured     = errors.New("accessor not configured")
	ErrAlreadyConfigured = errors.New("accessor already configured")
	ErrConnection        = errors.New("connection failed")
	ErrExecution         = errors.New("statement execution failed")
	ErrNoRows            = errors.New("no rows in result set")
	ErrNoResultSet       = errors.New("statement produced no result set")
	ErrStatementClosed   = errors.New("statement handle closed")
)

// ErrorKind tells apart the outcomes a query method can fail with.
type ErrorKind int

const (
	KindNotConfigured ErrorKind = iota
	KindConnection
	KindExecution
	KindNoRows
	KindNoResultSet
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotConfigured:
		return "not_configured"
	case KindConnection:
		return "connection"
	case KindExecution:
		return "execution"
	case KindNoRows:
		return "no_rows"
	case KindNoResultSet:
		return "no_result_set"
	}
	return "unknown"
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotConfigured:
		return ErrNotConfigured
	case KindConnection:
		return ErrConnection
	case KindNoRows:
		return ErrNoRows
	case KindNoResultSet:
		return ErrNoResultSet
	}
	return ErrExecution
}

// QueryError is returned by Setup and every query method.
type QueryError struct {
	Kind  ErrorKind
	Op    string
	Query string
	Err   error
}

func newQueryError(kind ErrorKind, op, query string, err error) *QueryError {
	if err == nil {
		err = kind.sentinel()
	}
	return &QueryError{Kind: kind, Op: op, Query: query, Err: err}
}

func (e *QueryError) Error() string {
	msg := "ygggo_db: " + e.Op + ": " + e.Kind.sentinel().Error()
	if e.Err != nil && e.Err != e.Kind.sentinel() {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *QueryError) Is(target error) bool { return target == e.Kind.sentinel() }

// KindOf returns the kind of a *QueryError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind, true
	}
	return 0, false
}

// ErrorClass groups driver errors by how a caller may react to them.
type ErrorClass int

const (
	ErrClassUnknown ErrorClass = iota
	ErrClassRetryable
	ErrClassConflict
	ErrClassReadonly
	ErrClassConstraint
)

func (c ErrorClass) String() string {
	switch c {
	case ErrClassRetryable:
		return "retryable"
	case ErrClassConflict:
		return "conflict"
	case ErrClassReadonly:
		return "readonly"
	case ErrClassConstraint:
		return "constraint"
	}
	return "unknown"
}

// Classify maps MySQL error numbers, SQLite result codes and network
// failures to an ErrorClass.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrClassUnknown
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1213, 1205: // ER_LOCK_DEADLOCK, ER_LOCK_WAIT_TIMEOUT
			return ErrClassRetryable
		case 1290, 1836: // ER_OPTION_PREVENTS_STATEMENT, ER_READ_ONLY_MODE
			return ErrClassReadonly
		case 1062, 1022: // ER_DUP_ENTRY, ER_DUP_KEY
			return ErrClassConflict
		case 1048, 1451, 1452, 3819:
			return ErrClassConstraint
		}
		return ErrClassUnknown
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		switch code {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrClassConflict
		}
		switch code & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return ErrClassRetryable
		case sqlite3.SQLITE_READONLY:
			return ErrClassReadonly
		case sqlite3.SQLITE_CONSTRAINT:
			return ErrClassConstraint
		}
		return ErrClassUnknown
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return ErrClassRetryable
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ErrClassRetryable
	}
	return ErrClassUnknown
}

func isRetryable(err error) bool {
	switch Classify(err) {
	case ErrClassRetryable, ErrClassReadonly:
		return true
	}
	return false
}
