package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown         = errors.New("unknown error occurred")
	ErrTimeout         = errors.New("operation timed out")
	ErrContextCanceled = errors.New("operation canceled via context")

	// Exchange Specific Errors
	ErrConnectionFailed  = errors.New("failed to connect to the exchange")
	ErrRateLimited       = errors.New("API rate limit exceeded")
	ErrAPIError          = errors.New("exchange API returned an error")
	ErrMalformedResponse = errors.New("exchange response could not be parsed")
)
