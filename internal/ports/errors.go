package ports

import "errors"

// Standard application-level errors.
// Adapters and the portfolio layer wrap these with context via fmt.Errorf
// so the caller can both match the kind (errors.Is) and see enough detail
// to retry (which id, how much balance was needed vs available).
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Portfolio Errors
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrPositionNotFound    = errors.New("position not found in portfolio")
	ErrPositionClosed      = errors.New("position is already closed")

	// Price Feed Errors
	ErrPriceFeedUnavailable = errors.New("price feed is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the price feed")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrUnknownSymbol        = errors.New("symbol is not supported by the price feed")

	// Journal Errors
	ErrQueryFailed = errors.New("journal query failed")
)
