package apperr

import (
	"errors"
	"fmt"
)

// Sentinels for the engine's failure modes. Services wrap these with
// context; handlers map them to HTTP statuses via StatusFor.
var (
	// ErrNoStudentsBound means a publish was attempted for a teacher with
	// no active roster. Nothing is written.
	ErrNoStudentsBound = errors.New("no active students bound to teacher")
	// ErrAssignmentNotFound covers transitions on unknown assignment ids.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrCrossTenantAccess covers ids that belong to a different school.
	ErrCrossTenantAccess = errors.New("assignment belongs to another school")
	// ErrMalformedDate covers unparseable date-stamp input.
	ErrMalformedDate = errors.New("malformed date stamp")
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// StatusFor maps engine sentinels to HTTP status codes. Unknown errors
// map to 500.
func StatusFor(err error) (status int, code string) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status, ae.Code
	}
	switch {
	case errors.Is(err, ErrNoStudentsBound):
		return 422, "no_students_bound"
	case errors.Is(err, ErrAssignmentNotFound):
		return 404, "assignment_not_found"
	case errors.Is(err, ErrCrossTenantAccess):
		return 403, "cross_tenant_access"
	case errors.Is(err, ErrMalformedDate):
		return 400, "malformed_date"
	default:
		return 500, "internal"
	}
}
