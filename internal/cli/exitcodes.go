package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/kbukum/reqkit/errors"
)

// Exit codes for the reqkit CLI
const (
	// ExitSuccess indicates the request succeeded or the wait condition held
	ExitSuccess = 0

	// ExitFailure indicates a non-2xx response with --fail, or a wait timeout
	ExitFailure = 1

	// ExitConfigError indicates an invalid config file, profile or trust store
	ExitConfigError = 3

	// ExitNetworkError indicates a connection, TLS or I/O failure
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries an exit code up to Execute.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: ExitUsageError, err: fmt.Errorf(format, args...)}
}

// exitCode maps an error returned by a command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if stderrors.As(err, &ee) {
		return ee.code
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeInvalidURL, errors.ErrCodeUnsupportedOperation:
		return ExitUsageError
	case errors.ErrCodeInvalidConfig, errors.ErrCodeTLSConfiguration:
		return ExitConfigError
	case errors.ErrCodeTransport:
		return ExitNetworkError
	}
	return ExitFailure
}
