package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies a failure so callers can react without parsing messages.
type Code string

const (
	CodeInvalidIdentifier Code = "INVALID_IDENTIFIER"
	CodeNotFound          Code = "NOT_FOUND"
	CodeNetwork           Code = "NETWORK"
	CodeValidation        Code = "VALIDATION"
	CodeIntegrity         Code = "INTEGRITY"
	CodeStorage           Code = "STORAGE"
	CodeConfig            Code = "CONFIG"
	CodeUnknown           Code = "UNKNOWN"
)

// Sentinel values usable with errors.Is. They match any *Error carrying the same code.
var (
	ErrInvalidIdentifier = &Error{Code: CodeInvalidIdentifier}
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrNetwork           = &Error{Code: CodeNetwork}
	ErrValidation        = &Error{Code: CodeValidation}
	ErrIntegrity         = &Error{Code: CodeIntegrity}
	ErrStorage           = &Error{Code: CodeStorage}
	ErrConfig            = &Error{Code: CodeConfig}
)

// Error is the tagged error returned by every fallible plugin operation.
type Error struct {
	Code    Code
	Op      string
	Message string
	Err     error
}

// New constructs an Error.
func New(code Code, op, message string, err error) error {
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

// Unwrap exposes the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error with the same code. A target with a
// message only matches errors carrying that exact message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if e.Code != t.Code {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var tagged *Error
	if stdErrors.As(err, &tagged) {
		return tagged.Code
	}
	return CodeUnknown
}

// InvalidIdentifier reports a malformed plugin identifier.
func InvalidIdentifier(op, id string) error {
	return &Error{
		Code:    CodeInvalidIdentifier,
		Op:      op,
		Message: fmt.Sprintf("invalid window id %q: only letters, digits, '-' and '_' are allowed", id),
	}
}

// NotFound reports a missing target.
func NotFound(op, message string) error {
	return &Error{Code: CodeNotFound, Op: op, Message: message}
}

// Network reports a download failure, timeout, or non-success status.
func Network(op, message string, err error) error {
	return &Error{Code: CodeNetwork, Op: op, Message: message, Err: err}
}

// Validation reports malformed input such as a missing archive file or manifest mismatch.
func Validation(op, message string, err error) error {
	return &Error{Code: CodeValidation, Op: op, Message: message, Err: err}
}

// Integrity reports a payload that must not be trusted: bad signature, oversize, or path escape.
func Integrity(op, message string, err error) error {
	return &Error{Code: CodeIntegrity, Op: op, Message: message, Err: err}
}

// Storage reports a filesystem or database failure.
func Storage(op, message string, err error) error {
	return &Error{Code: CodeStorage, Op: op, Message: message, Err: err}
}

// Config reports an unreadable or invalid application configuration.
func Config(op, message string, err error) error {
	return &Error{Code: CodeConfig, Op: op, Message: message, Err: err}
}
