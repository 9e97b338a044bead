package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/allocation-ledger/business/market/domain"
	"github.com/fd1az/allocation-ledger/internal/apperror"
	"github.com/fd1az/allocation-ledger/internal/cache"
	"github.com/fd1az/allocation-ledger/internal/logger"
)

const tracerName = "github.com/fd1az/allocation-ledger/business/market"

// MarketService serves tickers from a PriceSource through a TTL cache.
type MarketService struct {
	source PriceSource
	ttl    time.Duration
	cache  *cache.Cache[string, domain.Ticker]

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics struct {
		fetches     metric.Int64Counter
		cacheHits   metric.Int64Counter
		cacheMisses metric.Int64Counter
	}
}

// NewMarketService creates a service caching each symbol for ttl.
// A non-positive ttl disables caching.
func NewMarketService(source PriceSource, ttl time.Duration, log logger.LoggerInterface) (*MarketService, error) {
	s := &MarketService{
		source: source,
		ttl:    ttl,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	if ttl > 0 {
		s.cache = cache.New[string, domain.Ticker](10 * ttl)
	}

	meter := otel.Meter(tracerName)
	var err error
	if s.metrics.fetches, err = meter.Int64Counter("market_ticker_fetches_total",
		metric.WithDescription("Ticker fetches against the upstream source")); err != nil {
		return nil, err
	}
	if s.metrics.cacheHits, err = meter.Int64Counter("market_ticker_cache_hits_total",
		metric.WithDescription("Ticker cache hits")); err != nil {
		return nil, err
	}
	if s.metrics.cacheMisses, err = meter.Int64Counter("market_ticker_cache_misses_total",
		metric.WithDescription("Ticker cache misses")); err != nil {
		return nil, err
	}
	return s, nil
}

// Source returns the underlying price source.
func (s *MarketService) Source() PriceSource {
	return s.source
}

// Ticker returns the latest ticker for symbol.
func (s *MarketService) Ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	symbol = domain.NormalizeSymbol(symbol)

	ctx, span := s.tracer.Start(ctx, "market.ticker",
		trace.WithAttributes(
			attribute.String("symbol", symbol),
			attribute.String("source", s.source.Name()),
		),
	)
	defer span.End()

	if symbol == "" {
		return domain.Ticker{}, apperror.Validation(apperror.CodeRequiredField, "symbol is required")
	}

	if s.cache != nil {
		if t, ok := s.cache.Get(ctx, symbol); ok {
			s.metrics.cacheHits.Add(ctx, 1)
			span.AddEvent("cache_hit")
			return t, nil
		}
		s.metrics.cacheMisses.Add(ctx, 1)
	}

	s.metrics.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("source", s.source.Name())))
	t, err := s.source.Ticker(ctx, symbol)
	if err == nil {
		err = t.Validate()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if !apperror.IsAppError(err) {
			err = apperror.External(apperror.CodeMarketDataFailed, "ticker "+symbol, err)
		}
		return domain.Ticker{}, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, symbol, t, s.ttl)
	}

	span.SetAttributes(attribute.String("price", t.Price.String()))
	span.SetStatus(codes.Ok, "fetched")
	return t, nil
}

// Healthy reports the source's health when it tracks one.
func (s *MarketService) Healthy() (bool, string) {
	if hr, ok := s.source.(HealthReporter); ok {
		return hr.Healthy()
	}
	return true, ""
}

// Close releases the cache sweeper.
func (s *MarketService) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}
