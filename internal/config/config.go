// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Health    HealthConfig    `mapstructure:"health"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Store     StoreConfig     `mapstructure:"store"`
	Market    MarketConfig    `mapstructure:"market"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// HealthConfig holds health probe server settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// LedgerConfig holds allocation ledger settings.
type LedgerConfig struct {
	FeeRate           float64 `mapstructure:"fee_rate"`
	Precision         int32   `mapstructure:"precision"`
	NativeAsset       string  `mapstructure:"native_asset"`
	Decider           string  `mapstructure:"decider"` // random | momentum
	MomentumThreshold float64 `mapstructure:"momentum_threshold"`
	MarketSymbol      string  `mapstructure:"market_symbol"`
	// RandomSeed seeds the random decider; zero seeds from the clock.
	RandomSeed        uint64  `mapstructure:"random_seed"`
}

// FeeRateDecimal returns the fee rate as decimal.Decimal.
func (c *LedgerConfig) FeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FeeRate)
}

// MomentumThresholdDecimal returns the momentum threshold as decimal.Decimal.
func (c *LedgerConfig) MomentumThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MomentumThreshold)
}

// StoreConfig selects the account persistence backend.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"` // memory | sqlite
	SQLitePath string `mapstructure:"sqlite_path"`
}

// MarketConfig holds market data source settings.
type MarketConfig struct {
	Provider          string        `mapstructure:"provider"` // mock | binance
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	MockStartPrice    float64       `mapstructure:"mock_start_price"`
	MockVolatility    float64       `mapstructure:"mock_volatility"`
	MockSeed          uint64        `mapstructure:"mock_seed"`
}

// StrategyConfig holds strategy registry and runner settings.
type StrategyConfig struct {
	RunnerEnabled bool     `mapstructure:"runner_enabled"`
	Schedule      string   `mapstructure:"schedule"`
	Symbol        string   `mapstructure:"symbol"`
	TradeSize     float64  `mapstructure:"trade_size"`
	SeedIDs       []string `mapstructure:"seed_ids"`
}

// TradeSizeDecimal returns the runner trade size as decimal.Decimal.
func (c *StrategyConfig) TradeSizeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.TradeSize)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "LEDGER_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "LEDGER_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "LEDGER_LOG_LEVEL", "LOG_LEVEL")

	// HTTP
	v.BindEnv("http.port", "LEDGER_HTTP_PORT", "PORT")
	v.BindEnv("http.requests_per_minute", "LEDGER_HTTP_RPM")
	v.BindEnv("health.port", "LEDGER_HEALTH_PORT")

	// Ledger
	v.BindEnv("ledger.fee_rate", "LEDGER_FEE_RATE")
	v.BindEnv("ledger.decider", "LEDGER_DECIDER")
	v.BindEnv("ledger.native_asset", "LEDGER_NATIVE_ASSET")

	// Store
	v.BindEnv("store.driver", "LEDGER_STORE_DRIVER")
	v.BindEnv("store.sqlite_path", "LEDGER_SQLITE_PATH")

	// Market
	v.BindEnv("market.provider", "LEDGER_MARKET_PROVIDER")
	v.BindEnv("market.base_url", "LEDGER_MARKET_BASE_URL", "BINANCE_API_URL")

	// Strategy
	v.BindEnv("strategy.runner_enabled", "LEDGER_RUNNER_ENABLED")
	v.BindEnv("strategy.schedule", "LEDGER_RUNNER_SCHEDULE")

	// Telemetry
	v.BindEnv("telemetry.enabled", "LEDGER_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "LEDGER_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "LEDGER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "LEDGER_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "allocation-ledger")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// HTTP defaults
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "5s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.requests_per_minute", 600)
	v.SetDefault("health.port", 8081)

	// Ledger defaults
	v.SetDefault("ledger.fee_rate", 0.005) // 0.5%
	v.SetDefault("ledger.precision", 8)
	v.SetDefault("ledger.native_asset", "ETH")
	v.SetDefault("ledger.decider", "random")
	v.SetDefault("ledger.momentum_threshold", 0)
	v.SetDefault("ledger.random_seed", 0)
	v.SetDefault("ledger.market_symbol", "ETHUSDC")

	// Store defaults (volatile, like the simulation it backs)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.sqlite_path", "ledger.db")

	// Market defaults
	v.SetDefault("market.provider", "mock")
	v.SetDefault("market.base_url", "https://api.binance.com")
	v.SetDefault("market.timeout", "5s")
	v.SetDefault("market.cache_ttl", "2s")
	v.SetDefault("market.requests_per_minute", 1200)
	v.SetDefault("market.mock_start_price", 3400)
	v.SetDefault("market.mock_volatility", 0.01)
	v.SetDefault("market.mock_seed", 1)

	// Strategy defaults
	v.SetDefault("strategy.runner_enabled", true)
	v.SetDefault("strategy.schedule", "@every 30s")
	v.SetDefault("strategy.symbol", "ETHUSDC")
	v.SetDefault("strategy.trade_size", 0.1)
	v.SetDefault("strategy.seed_ids", []string{})

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "allocation-ledger")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ledger.FeeRate < 0 || c.Ledger.FeeRate >= 1 {
		return fmt.Errorf("ledger.fee_rate must be in [0, 1): %v", c.Ledger.FeeRate)
	}
	if c.Ledger.Precision < 0 {
		return fmt.Errorf("ledger.precision cannot be negative: %d", c.Ledger.Precision)
	}
	if c.Ledger.NativeAsset == "" {
		return fmt.Errorf("ledger.native_asset is required")
	}
	switch c.Ledger.Decider {
	case "random", "momentum":
	default:
		return fmt.Errorf("unknown ledger.decider: %q", c.Ledger.Decider)
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store.driver: %q", c.Store.Driver)
	}
	switch c.Market.Provider {
	case "mock":
	case "binance":
		if c.Market.BaseURL == "" {
			return fmt.Errorf("market.base_url is required for binance provider")
		}
	default:
		return fmt.Errorf("unknown market.provider: %q", c.Market.Provider)
	}
	if !validPort(c.HTTP.Port) {
		return fmt.Errorf("invalid http.port: %d", c.HTTP.Port)
	}
	if !validPort(c.Health.Port) {
		return fmt.Errorf("invalid health.port: %d", c.Health.Port)
	}
	if c.Strategy.RunnerEnabled && c.Strategy.Schedule == "" {
		return fmt.Errorf("strategy.schedule is required when the runner is enabled")
	}
	return nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
