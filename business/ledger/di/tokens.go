// Package di contains dependency injection tokens for the ledger context.
package di

import (
	"github.com/fd1az/allocation-ledger/business/ledger/app"
	"github.com/fd1az/allocation-ledger/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Ledger = di.NewToken[*app.Ledger]("ledger.Ledger")
)

// Private dependency tokens - internal to ledger module
var (
	AccountStore = di.NewToken[app.AccountStore]("ledger:accountStore")
	Decider      = di.NewToken[app.Decider]("ledger:decider")
)

func GetLedger(c di.ServiceRegistry) *app.Ledger {
	return di.GetToken(c, Ledger)
}

func GetAccountStore(c di.ServiceRegistry) app.AccountStore {
	return di.GetToken(c, AccountStore)
}

func GetDecider(c di.ServiceRegistry) app.Decider {
	return di.GetToken(c, Decider)
}
