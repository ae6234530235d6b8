package errs

import (
	"errors"
	"fmt"
)

const (
	CodeDuplicateTab    = "DUPLICATE_TAB"
	CodeUnknownTab      = "UNKNOWN_TAB"
	CodeAuth            = "AUTH"
	CodeListUnavailable = "LIST_UNAVAILABLE"
	CodeFetch           = "FETCH"
	CodeOTPNotFound     = "OTP_NOT_FOUND"
	CodeValidation      = "VALIDATION"
	CodeTimeout         = "TIMEOUT"
	CodeDriver          = "DRIVER"
)

// Error is a typed error carrying a stable code for assertions and reporting.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns a coded error without a cause.
func New(code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap returns a coded error wrapping cause.
func Wrap(code, msg string, cause error) error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// CodeOf returns the code of the outermost coded error in the chain, or "".
func CodeOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var coded *Error
		if !errors.As(err, &coded) {
			return false
		}
		if coded.Code == code {
			return true
		}
		err = coded.Cause
	}
	return false
}
