package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Request construction errors
const (
	// ErrCodeInvalidURL indicates the target URL could not be parsed.
	ErrCodeInvalidURL ErrorCode = "INVALID_URL"
	// ErrCodeUnsupportedOperation indicates an operation the request kind does not allow,
	// such as attaching a body to a GET.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
	// ErrCodeInvalidConfig indicates a configuration profile failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// TLS errors
const (
	// ErrCodeTLSConfiguration indicates trust material could not be loaded or parsed.
	ErrCodeTLSConfiguration ErrorCode = "TLS_CONFIGURATION"
)

// Execution errors
const (
	// ErrCodeTransport indicates a connection or I/O failure while sending.
	ErrCodeTransport ErrorCode = "TRANSPORT"
	// ErrCodeWaitTimeout indicates a waiter condition did not hold in time.
	ErrCodeWaitTimeout ErrorCode = "WAIT_TIMEOUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransport:   true,
	ErrCodeWaitTimeout: true,
}

// IsRetryableCode returns true if the error code indicates a transient failure.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
