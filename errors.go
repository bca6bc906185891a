package sensorhub

import (
	"errors"
	"fmt"
)

// Error represents a structured sensorhub error with context. The
// public API (spec.md §4.6) collapses every error to a bool, but every
// rejection path constructs one of these first so it can be logged with
// enough context to diagnose, following the same division of concerns
// as the teacher's ublk.Error (library layer returns error, only the
// CLI logs it).
type Error struct {
	Op     string        // operation that failed (e.g. "Request", "Reconfig")
	Handle uint32        // sensor handle (0 if not applicable)
	Client uint32        // client id (0 if not applicable)
	Code   SensorErrCode // high-level error category
	Msg    string        // human-readable message
	Inner  error         // wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Handle != 0 {
		parts = append(parts, fmt.Sprintf("handle=%d", e.Handle))
	}
	if e.Client != 0 {
		parts = append(parts, fmt.Sprintf("client=%d", e.Client))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("sensorhub: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("sensorhub: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is compares by error code, mirroring the teacher's Error.Is.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// SensorErrCode represents the three error kinds spec.md §7 defines:
// capacity, not-found, and infeasible.
type SensorErrCode string

const (
	ErrCodeCapacity  SensorErrCode = "capacity exhausted"
	ErrCodeNotFound  SensorErrCode = "not found"
	ErrCodeInfeasible SensorErrCode = "infeasible rate combination"
)

// NewError creates a new structured error.
func NewError(op string, code SensorErrCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewSensorError creates a new sensor-scoped error.
func NewSensorError(op string, handle uint32, code SensorErrCode, msg string) *Error {
	return &Error{Op: op, Handle: handle, Code: code, Msg: msg}
}

// NewRequestError creates a new (sensor, client)-scoped error.
func NewRequestError(op string, handle, client uint32, code SensorErrCode, msg string) *Error {
	return &Error{Op: op, Handle: handle, Client: client, Code: code, Msg: msg}
}

// WrapError wraps an existing error with sensorhub context.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if se, ok := inner.(*Error); ok {
		return &Error{
			Op:     op,
			Handle: se.Handle,
			Client: se.Client,
			Code:   se.Code,
			Msg:    se.Msg,
			Inner:  se.Inner,
		}
	}
	return &Error{Op: op, Msg: inner.Error(), Inner: inner}
}

// IsCode checks if an error matches a specific error code.
func IsCode(err error, code SensorErrCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
