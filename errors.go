package zendfi

import "errors"

// Sentinel errors for ZendFi API and signing operations.
var (
	// ErrAuthentication indicates the API key is invalid or missing.
	ErrAuthentication = errors.New("zendfi: authentication failed")

	// ErrSessionKeyNotFound indicates the session key does not exist.
	ErrSessionKeyNotFound = errors.New("zendfi: session key not found")

	// ErrInsufficientBalance indicates the session key balance cannot cover the payment.
	ErrInsufficientBalance = errors.New("zendfi: insufficient session key balance")

	// ErrSessionExpired indicates the session key has expired.
	ErrSessionExpired = errors.New("zendfi: session key expired")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("zendfi: rate limit exceeded")

	// ErrValidation indicates the request failed server-side validation.
	ErrValidation = errors.New("zendfi: request validation failed")

	// ErrNetwork indicates a transport-level error occurred.
	ErrNetwork = errors.New("zendfi: network error")

	// ErrAPIFailure indicates an API error that maps to no specific sentinel.
	ErrAPIFailure = errors.New("zendfi: api request failed")

	// ErrSigningFailed indicates a signing operation failed.
	ErrSigningFailed = errors.New("zendfi: signing failed")

	// ErrInvalidKey indicates an invalid private or public key.
	ErrInvalidKey = errors.New("zendfi: invalid key")

	// ErrInvalidMnemonic indicates an invalid BIP39 mnemonic phrase.
	ErrInvalidMnemonic = errors.New("zendfi: invalid mnemonic phrase")

	// ErrWalletMismatch indicates the backend returned a session key bound to a
	// different wallet than the locally generated keypair.
	ErrWalletMismatch = errors.New("zendfi: session wallet does not match local keypair")

	// ErrKeyNotLoaded indicates the session key has not been created or loaded.
	ErrKeyNotLoaded = errors.New("zendfi: session key not loaded")

	// ErrKeyLocked indicates the session key is locked and a PIN is required.
	ErrKeyLocked = errors.New("zendfi: session key locked, PIN required")
)

// ErrorCode represents API error codes for programmatic handling.
type ErrorCode string

const (
	// ErrCodeAuthentication indicates an invalid or missing API key.
	ErrCodeAuthentication ErrorCode = "AUTHENTICATION_FAILED"

	// ErrCodeSessionKeyNotFound indicates the session key does not exist.
	ErrCodeSessionKeyNotFound ErrorCode = "SESSION_KEY_NOT_FOUND"

	// ErrCodeInsufficientBalance indicates the balance cannot cover the payment.
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"

	// ErrCodeSessionExpired indicates the session key has expired.
	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"

	// ErrCodeRateLimited indicates the rate limit was exceeded.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// ErrCodeValidation indicates server-side validation failed.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeNetwork indicates a transport-level failure.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"
)

// APIError provides structured error information from the ZendFi API.
type APIError struct {
	// StatusCode is the HTTP status code, or 0 for transport errors.
	StatusCode int

	// Code is the error code for programmatic handling.
	Code ErrorCode

	// Message is the human-readable error message from the server.
	Message string

	// Details contains additional error context from the server.
	Details map[string]interface{}

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Err.Error() + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying sentinel error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError wrapping the given sentinel.
func NewAPIError(statusCode int, code ErrorCode, message string, err error) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

// WithDetails adds additional context to the error.
// Lazily initializes the Details map if nil.
func (e *APIError) WithDetails(key string, value interface{}) *APIError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}
