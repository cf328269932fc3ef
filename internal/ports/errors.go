package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// ErrMissingFetcher marks a refresh request against a loader that was
	// built without a history source. It is a configuration error, not a
	// data-availability condition.
	ErrMissingFetcher = errors.New("refresh requested but no history source is configured")

	// History Source Errors
	ErrSourceUnavailable    = errors.New("history source API is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the history source")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("history source authentication failed (check API keys)")
	ErrInvalidAPIKeys       = errors.New("invalid API keys or permissions")

	// Candle Store Errors
	ErrStoreUnavailable = errors.New("candle store is unavailable")
	ErrQueryFailed      = errors.New("store query failed")
	ErrPersistFailed    = errors.New("store persist failed")
)
