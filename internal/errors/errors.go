package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so that errors.Is(err, ErrNotFound) works for any
// NotFound error regardless of its message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

const (
	CodeValidation   = "VAL_001"
	CodeNotFound     = "NF_001"
	CodeConflict     = "CONF_001"
	CodeTransport    = "TRANSPORT_001"
	CodeConfig       = "CONFIG_002"
	CodeUnauthorized = "AUTH_001"
	CodeInternal     = "GEN_003"
)

var (
	ErrValidation = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrNotFound   = &AppError{Code: CodeNotFound, Message: "resource not found"}
	ErrConflict   = &AppError{Code: CodeConflict, Message: "unique constraint conflict"}
	ErrTransport  = &AppError{Code: CodeTransport, Message: "notification transport failed"}

	ErrConfigInvalid = &AppError{Code: CodeConfig, Message: "invalid configuration"}
	ErrUnauthorized  = &AppError{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrInternal      = &AppError{Code: CodeInternal, Message: "internal error"}
)

// Validation reports malformed input rejected before any write.
func Validation(format string, args ...any) *AppError {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a resource that is missing or not owned by the caller.
func NotFound(what string) *AppError {
	return &AppError{Code: CodeNotFound, Message: what + " not found"}
}

// Conflict marks a unique-constraint violation. Never surfaced outside the ledger.
func Conflict(cause error) *AppError {
	return &AppError{Code: CodeConflict, Message: "unique constraint conflict", Cause: cause}
}

// Transport wraps a failed send on a notification channel.
func Transport(channel string, cause error) *AppError {
	return &AppError{Code: CodeTransport, Message: "send via " + channel + " failed", Cause: cause}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

func IsValidation(err error) bool { return stderrors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return stderrors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return stderrors.Is(err, ErrConflict) }
func IsTransport(err error) bool  { return stderrors.Is(err, ErrTransport) }
func IsUnauthorized(err error) bool {
	return stderrors.Is(err, ErrUnauthorized)
}
func IsConfigInvalid(err error) bool {
	return stderrors.Is(err, ErrConfigInvalid)
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}
