// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/fd1az/allocation-ledger/internal/asset"
	"github.com/fd1az/allocation-ledger/internal/config"
	"github.com/fd1az/allocation-ledger/internal/di"
	"github.com/fd1az/allocation-ledger/internal/health"
	"github.com/fd1az/allocation-ledger/internal/logger"
)

// Service names registered by the monolith itself.
const (
	ConfigService        = "config"
	LoggerService        = "logger"
	AssetRegistryService = "assetRegistry"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	AssetRegistry() *asset.Registry
	Router() chi.Router
	Health() *health.Server
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Closer is implemented by modules holding resources released on shutdown.
type Closer interface {
	Close(context.Context) error
}

// App implements the Monolith interface.
type App struct {
	config        *config.Config
	logger        logger.LoggerInterface
	assetRegistry *asset.Registry
	router        chi.Router
	health        *health.Server
	container     di.Container
	modules       []Module
}

var _ Monolith = (*App)(nil)

// New creates a new App around the shared infrastructure.
func New(cfg *config.Config, log logger.LoggerInterface, router chi.Router, hs *health.Server) *App {
	// Use default asset registry (pre-populated with common assets)
	assetRegistry := asset.DefaultRegistry()

	container := di.NewContainer()
	container.Register(ConfigService, cfg)
	container.Register(LoggerService, log)
	container.Register(AssetRegistryService, assetRegistry)

	return &App{
		config:        cfg,
		logger:        log,
		assetRegistry: assetRegistry,
		router:        router,
		health:        hs,
		container:     container,
	}
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *App) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *App) Router() chi.Router {
	return a.router
}

func (a *App) Health() *health.Server {
	return a.health
}

func (a *App) Services() di.ServiceRegistry {
	return a.container
}


// Container returns the DI container for module registration.
func (a *App) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *App) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
		a.modules = append(a.modules, m)
	}
	return nil
}

// StartModules starts all registered modules in registration order.
func (a *App) StartModules(ctx context.Context) error {
	for _, m := range a.modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes module resources in reverse registration order.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	for i := len(a.modules) - 1; i >= 0; i-- {
		c, ok := a.modules[i].(Closer)
		if !ok {
			continue
		}
		if err := c.Close(ctx); err != nil {
			a.logger.Error(ctx, "module close failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
