// Package main is the entry point for the allocation ledger service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fd1az/allocation-ledger/business/ledger"
	"github.com/fd1az/allocation-ledger/business/market"
	"github.com/fd1az/allocation-ledger/business/strategy"
	"github.com/fd1az/allocation-ledger/internal/apm"
	"github.com/fd1az/allocation-ledger/internal/config"
	"github.com/fd1az/allocation-ledger/internal/health"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/metrics"
	"github.com/fd1az/allocation-ledger/internal/monolith"
	"github.com/fd1az/allocation-ledger/internal/ratelimit"
	"github.com/fd1az/allocation-ledger/internal/web"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ledgerd %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting allocation ledger",
		"version", version,
		"environment", cfg.App.Environment,
	)

	// Observability
	shutdownTelemetry, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	healthServer := health.NewServer(cfg.Health.Port, version, log)
	healthServer.Start(ctx)
	log.Info(ctx, "health server started", "port", cfg.Health.Port)

	router := web.NewRouter(log, ratelimit.New(cfg.HTTP.RequestsPerMinute))
	mono := monolith.New(cfg, log, router, healthServer)

	// Define modules in dependency order
	modules := []monolith.Module{
		&market.Module{},   // Must be first - provides the market service
		&ledger.Module{},   // Reads market context for allocation decisions
		&strategy.Module{}, // Trades on market tickers
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	api := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           otelhttp.NewHandler(router, "ledger-api"),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "api server listening", "port", cfg.HTTP.Port)
		if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down", "reason", context.Cause(ctx))
	case serveErr = <-errCh:
		log.Error(ctx, "api server failed", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "api server shutdown", "error", err)
	}
	if err := mono.Close(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "module shutdown", "error", err)
	}
	if err := healthServer.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "health server shutdown", "error", err)
	}

	log.Info(shutdownCtx, "shutdown complete")
	return serveErr
}

// setupTelemetry installs the trace and meter providers when telemetry is
// enabled and returns their shutdown func.
func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	traceProvider, err := apm.NewTraceProvider(ctx, log, apm.Settings{
		Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	opts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithPrometheus(),
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		headers, err := apm.ParseHeaders(cfg.Telemetry.OTLPHeaders)
		if err != nil {
			return nil, fmt.Errorf("invalid telemetry.otlp_headers: %w", err)
		}
		opts = append(opts, metrics.WithOTLP(cfg.Telemetry.OTLPEndpoint, headers, true))
	}

	meterProvider, err := metrics.NewMetricProvider(ctx, opts...)
	if err != nil {
		_ = traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	promServer := metrics.PrometheusServer(cfg.Telemetry.PrometheusPort)
	go func() {
		if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "prometheus server stopped", "error", err)
		}
	}()
	log.Info(ctx, "prometheus metrics server started", "port", cfg.Telemetry.PrometheusPort)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = promServer.Shutdown(shutdownCtx)
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "meter provider shutdown", "error", err)
		}
		if err := traceProvider.Stop(); err != nil {
			log.Error(shutdownCtx, "trace provider shutdown", "error", err)
		}
	}, nil
}
