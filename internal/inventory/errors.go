package inventory

import (
	"errors"
	"fmt"
)

// Kind classifies failures for the transport layer.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindValidation
	KindPermission
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission_denied"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// Stable error codes returned to clients.
const (
	CodeHouseNotFound      = "house_not_found"
	CodeMedicationNotFound = "medication_not_found"
	CodeUserNotFound       = "user_not_found"
	CodeMissingRequired    = "missing_required"
	CodeInvalidField       = "invalid_field"
	CodeInvalidHouse       = "invalid_house"
	CodeUserExists         = "user_exists"
	CodeEmailTaken         = "email_taken"
	CodeForbidden          = "forbidden"
	CodeStorage            = "storage_error"
)

// Error is the typed failure returned by every Service operation.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func notFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func invalid(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

func missing(field string) *Error {
	return invalid(CodeMissingRequired, field+" is required")
}

func forbidden() *Error {
	return &Error{Kind: KindPermission, Code: CodeForbidden, Message: "permission denied"}
}

func storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Code: CodeStorage, Message: op, Err: err}
}
