package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidAmount   Code = "INVALID_AMOUNT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Ledger and strategy error codes
const (
	// Ledger
	CodeAccountNotFound Code = "ACCOUNT_NOT_FOUND"
	CodeStoreFailed     Code = "STORE_FAILED"

	// Strategy
	CodeStrategyNotFound     Code = "STRATEGY_NOT_FOUND"
	CodeTradeExecutionFailed Code = "TRADE_EXECUTION_FAILED"

	// Market data
	CodeMarketDataFailed Code = "MARKET_DATA_FAILED"
	CodeInvalidTicker    Code = "INVALID_TICKER"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
