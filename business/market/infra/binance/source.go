// Package binance reads 24h tickers from the Binance REST API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/allocation-ledger/business/market/domain"
	"github.com/fd1az/allocation-ledger/internal/apperror"
	"github.com/fd1az/allocation-ledger/internal/circuitbreaker"
	"github.com/fd1az/allocation-ledger/internal/httpclient"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/ratelimit"
)

const (
	BaseAPIURL   = "https://api.binance.com"
	BaseAPIURLUS = "https://api.binance.us"

	tickerEndpoint = "/api/v3/ticker/24hr"

	httpTimeout = 5 * time.Second
)

// Config holds configuration for the Binance source.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Source implements the market PriceSource against Binance.
type Source struct {
	client *httpclient.InstrumentedClient
	cb     *circuitbreaker.CircuitBreaker[tickerResponse]
	logger logger.LoggerInterface
}

// NewSource creates a Binance source.
func NewSource(cfg Config, log logger.LoggerInterface) (*Source, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = httpTimeout
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("binance"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithRateLimiter(ratelimit.New(cfg.RequestsPerMinute)),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	s := &Source{client: client, logger: log}

	cbCfg := circuitbreaker.DefaultConfig("binance-ticker")
	cbCfg.IsSuccessful = func(err error) bool {
		// an unknown symbol is the caller's mistake, not an outage
		_, isAPIErr := err.(*APIError)
		return err == nil || isAPIErr
	}
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	s.cb = circuitbreaker.New[tickerResponse](cbCfg)

	return s, nil
}

func (s *Source) Name() string { return "binance" }

// tickerResponse is the subset of /api/v3/ticker/24hr the source reads.
type tickerResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	CloseTime          int64  `json:"closeTime"`
}

// Ticker fetches the 24h ticker for symbol.
func (s *Source) Ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	resp, err := s.cb.Execute(func() (tickerResponse, error) {
		var out tickerResponse
		_, err := s.client.GetJSON(ctx, tickerEndpoint, &out,
			httpclient.WithQueryParam("symbol", symbol),
			httpclient.WithLabel("endpoint", "ticker_24hr"),
			httpclient.WithResponseErrorHandler(errorHandler),
		)
		return out, err
	})
	if err != nil {
		switch {
		case circuitbreaker.IsRejection(err):
			return domain.Ticker{}, apperror.New(apperror.CodeCircuitOpen,
				apperror.WithCause(err), apperror.WithContext("binance ticker "+symbol))
		case isAPIError(err):
			return domain.Ticker{}, apperror.New(apperror.CodeInvalidTicker,
				apperror.WithCause(err), apperror.WithMessage(err.Error()),
				apperror.WithStatusCode(http.StatusBadRequest))
		default:
			s.logger.Warn(ctx, "binance ticker fetch failed", "symbol", symbol, "error", err)
			return domain.Ticker{}, apperror.External(apperror.CodeMarketDataFailed, "binance ticker "+symbol, err)
		}
	}

	return resp.toTicker()
}

func (r tickerResponse) toTicker() (domain.Ticker, error) {
	price, err := decimal.NewFromString(r.LastPrice)
	if err != nil {
		return domain.Ticker{}, apperror.New(apperror.CodeInvalidTicker,
			apperror.WithCause(err), apperror.WithContext("lastPrice "+r.LastPrice),
			apperror.WithStatusCode(http.StatusBadGateway))
	}
	pct, err := decimal.NewFromString(r.PriceChangePercent)
	if err != nil {
		return domain.Ticker{}, apperror.New(apperror.CodeInvalidTicker,
			apperror.WithCause(err), apperror.WithContext("priceChangePercent "+r.PriceChangePercent),
			apperror.WithStatusCode(http.StatusBadGateway))
	}

	at := time.Now().UTC()
	if r.CloseTime > 0 {
		at = time.UnixMilli(r.CloseTime).UTC()
	}

	return domain.Ticker{
		Symbol:      r.Symbol,
		Price:       price,
		ChangeRatio: pct.Div(decimal.NewFromInt(100)),
		Source:      "binance",
		At:          at,
	}, nil
}

// Healthy reports whether the breaker admits calls.
func (s *Source) Healthy() (bool, string) {
	if s.cb.IsOpen() {
		return false, "binance circuit open"
	}
	return true, s.cb.State().String()
}

// APIError represents an error response from Binance API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error %d: %s", e.Code, e.Message)
}

func isAPIError(err error) bool {
	_, ok := err.(*APIError)
	return ok
}

// errorHandler parses Binance API error responses. Client errors carrying
// a Binance code become *APIError.
func errorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var apiErr APIError
	if statusCode < 500 && statusCode != http.StatusTooManyRequests && json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
		return &apiErr
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
}
