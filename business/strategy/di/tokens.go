// Package di contains dependency injection tokens for the strategy context.
package di

import (
	"github.com/fd1az/allocation-ledger/business/strategy/app"
	"github.com/fd1az/allocation-ledger/business/strategy/infra/dex"
	"github.com/fd1az/allocation-ledger/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Registry = di.NewToken[*app.Registry]("strategy.Registry")
)

// Private dependency tokens - internal to strategy module
var (
	Executor = di.NewToken[*dex.SimulatedExecutor]("strategy:executor")
	Runner   = di.NewToken[*app.Runner]("strategy:runner")
)

func GetRegistry(c di.ServiceRegistry) *app.Registry {
	return di.GetToken(c, Registry)
}

func GetExecutor(c di.ServiceRegistry) *dex.SimulatedExecutor {
	return di.GetToken(c, Executor)
}

func GetRunner(c di.ServiceRegistry) *app.Runner {
	return di.GetToken(c, Runner)
}
