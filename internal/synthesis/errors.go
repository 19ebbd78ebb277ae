package synthesis

import "errors"

// Common synthesis errors.
var (
	// ErrEmptyText is returned when attempting to synthesize empty text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidVoice is returned when the requested voice is not available.
	ErrInvalidVoice = errors.New("invalid or unsupported voice")

	// ErrInvalidFormat is returned when the requested format is not supported.
	ErrInvalidFormat = errors.New("invalid or unsupported audio format")

	// ErrRateLimited is returned when provider rate limits are exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrQuotaExceeded is returned when the account quota is exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrServiceUnavailable is returned when the provider is unreachable or
	// responding with server errors.
	ErrServiceUnavailable = errors.New("synthesis service unavailable")
)

// ProviderError carries detailed error information from a synthesis provider.
type ProviderError struct {
	// Provider is the provider that returned the error.
	Provider string

	// Code is the provider-specific error code (HTTP status for REST providers).
	Code string

	// Message is the error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Retryable indicates the error is transient and a retry may succeed.
	Retryable bool
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Provider + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Provider + ": " + e.Message
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ErrorCategory maps an error to a stable category name used by the error
// statistics table. Unknown errors fall into the generic "provider_error"
// bucket so that every failure is still recorded somewhere.
func ErrorCategory(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrEmptyText), errors.Is(err, ErrInvalidVoice), errors.Is(err, ErrInvalidFormat):
		return "invalid_request"
	default:
		return "provider_error"
	}
}
