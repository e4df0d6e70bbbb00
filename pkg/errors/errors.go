// Package errors defines the coded errors shared by the depchrono libraries,
// CLI and HTTP API. A code names the failure class; the message carries the
// specifics; the cause keeps the original error reachable through errors.As.
//
// # Codes
//
//   - CHECKOUT_FAILED: the working tree could not be moved; fatal to one build
//   - MALFORMED_TABLE: a registry table failed to parse; that field stays empty
//   - INVALID_*: rejected input (names, labels, paths, documents)
//   - NOT_FOUND, PACKAGE_NOT_FOUND, UNKNOWN_VERSION: missing resources
//   - STORAGE_ERROR, INTERNAL_ERROR, UNSUPPORTED: backend or internal failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownVersion, "version %s not found", v)
//	if errors.Is(err, errors.ErrCodeUnknownVersion) {
//	    // list the available versions
//	}
//
//	err = errors.Wrap(errors.ErrCodeCheckoutFailed, gitErr, "checkout %s", hash)
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable failure class.
type Code string

const (
	// Rejected input
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidLabel   Code = "INVALID_LABEL"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Missing resources
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeUnknownVersion  Code = "UNKNOWN_VERSION"

	// Registry extraction errors
	ErrCodeCheckoutFailed Code = "CHECKOUT_FAILED"
	ErrCodeMalformedTable Code = "MALFORMED_TABLE"

	// Backend and internal errors
	ErrCodeStorage     Code = "STORAGE_ERROR"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error carries a code, a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an Error with a formatted message and no cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap returns an Error that keeps cause reachable.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsFatalCheckout reports whether err aborted a snapshot build because the
// working tree could not be switched to the requested commit.
func IsFatalCheckout(err error) bool {
	return Is(err, ErrCodeCheckoutFailed)
}
