package apperror

import "net/http"

type entry struct {
	status  int
	message string
}

// catalog holds the default status and message for each code. Codes missing
// here are internal errors whose message is the code itself.
var catalog = map[Code]entry{
	// General validation
	CodeRequiredField:   {http.StatusBadRequest, "Required field is missing"},
	CodeInvalidInput:    {http.StatusBadRequest, "Invalid input provided"},
	CodeInvalidAmount:   {http.StatusBadRequest, "Amount must be a finite number greater than 0"},
	CodeInvalidFormat:   {http.StatusBadRequest, "Invalid data format"},
	CodeValidationError: {http.StatusBadRequest, "Validation error"},
	CodeNotFound:        {http.StatusNotFound, "Resource not found"},

	// Configuration
	CodeConfigurationError: {http.StatusInternalServerError, "Configuration error"},

	// External services
	CodeExternalServiceError: {http.StatusServiceUnavailable, "External service error"},
	CodeServiceTimeout:       {http.StatusServiceUnavailable, "Service request timeout"},
	CodeRateLimitExceeded:    {http.StatusTooManyRequests, "Rate limit exceeded"},

	// System
	CodeInternalError: {http.StatusInternalServerError, "Internal server error"},
	CodeUnknownError:  {http.StatusInternalServerError, "An unknown error occurred"},

	// Ledger
	CodeAccountNotFound: {http.StatusNotFound, "Investor account not found"},
	CodeStoreFailed:     {http.StatusInternalServerError, "Failed to persist ledger state"},

	// Strategy
	CodeStrategyNotFound:     {http.StatusNotFound, "Strategy not found"},
	CodeTradeExecutionFailed: {http.StatusInternalServerError, "Trade execution failed"},

	// Market data
	CodeMarketDataFailed: {http.StatusServiceUnavailable, "Failed to fetch market data"},
	CodeInvalidTicker:    {http.StatusBadRequest, "Invalid ticker data"},
	CodeCircuitOpen:      {http.StatusServiceUnavailable, "Circuit breaker is open"},
}

func lookup(code Code) entry {
	if e, ok := catalog[code]; ok {
		return e
	}
	return entry{status: http.StatusInternalServerError, message: string(code)}
}
