package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the unified reqkit error type.
type Error struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with automatic retryable detection.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

// InvalidURL creates an Error for a target URL that cannot be used.
func InvalidURL(rawURL string, cause error) *Error {
	return &Error{
		Code: ErrCodeInvalidURL, Message: fmt.Sprintf("invalid URL %q", rawURL),
		Details: map[string]any{"url": rawURL}, Cause: cause,
	}
}

// UnsupportedOperation creates an Error for an operation the request kind does not permit.
func UnsupportedOperation(operation, target string) *Error {
	return &Error{
		Code: ErrCodeUnsupportedOperation, Message: fmt.Sprintf("can't %s for %s", operation, target),
		Details: map[string]any{"operation": operation, "target": target},
	}
}

// TLSConfiguration creates an Error for trust material that could not be loaded.
func TLSConfiguration(reason string, cause error) *Error {
	return &Error{
		Code: ErrCodeTLSConfiguration, Message: reason, Cause: cause,
	}
}

// Transport creates an Error for a failed send.
func Transport(method, target string, cause error) *Error {
	return &Error{
		Code: ErrCodeTransport, Message: fmt.Sprintf("%s %s failed", method, target),
		Retryable: true, Cause: cause,
		Details: map[string]any{"method": method, "url": target},
	}
}

// InvalidConfig creates an Error for a configuration profile that failed validation.
func InvalidConfig(message string) *Error {
	return &Error{Code: ErrCodeInvalidConfig, Message: message}
}

// WaitTimeout creates an Error for a waiter whose condition never held.
func WaitTimeout(reason string, cause error) *Error {
	return &Error{
		Code: ErrCodeWaitTimeout, Message: reason, Retryable: true, Cause: cause,
	}
}

// --- Inspection ---

// AsError converts an error to an *Error if possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsInvalidURL checks if an error is an invalid URL error.
func IsInvalidURL(err error) bool { return CodeOf(err) == ErrCodeInvalidURL }

// IsUnsupportedOperation checks if an error is an unsupported operation error.
func IsUnsupportedOperation(err error) bool { return CodeOf(err) == ErrCodeUnsupportedOperation }

// IsTLSConfiguration checks if an error is a TLS configuration error.
func IsTLSConfiguration(err error) bool { return CodeOf(err) == ErrCodeTLSConfiguration }

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool { return CodeOf(err) == ErrCodeTransport }

// IsInvalidConfig checks if an error is a configuration validation error.
func IsInvalidConfig(err error) bool { return CodeOf(err) == ErrCodeInvalidConfig }

// IsWaitTimeout checks if an error is a waiter timeout.
func IsWaitTimeout(err error) bool { return CodeOf(err) == ErrCodeWaitTimeout }

// IsRetryable checks if an error is marked retryable.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable
}
