// internal/contracts/errors.go
package contracts

import "fmt"

// Code classifies an operation rejection.
type Code string

const (
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeNothingToWithdraw Code = "NOTHING_TO_WITHDRAW"
	CodeReentrantCall     Code = "REENTRANT_CALL"
	CodeExpired           Code = "EXPIRED"
)

// Fault is the synchronous rejection every failed operation returns. A
// fault means the operation left no state change behind.
type Fault struct {
	Op     string
	Code   Code
	Reason string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s (%s)", f.Op, f.Reason, f.Code)
}

func reject(op string, code Code, reason string) error {
	return &Fault{Op: op, Code: code, Reason: reason}
}

// CodeOf extracts the rejection code from an operation error, or "" when
// the error did not originate in the engine.
func CodeOf(err error) Code {
	if f, ok := err.(*Fault); ok {
		return f.Code
	}
	return ""
}

// IsCode reports whether err is an engine fault carrying the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
