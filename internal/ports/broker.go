package ports

import (
	"context"

	"github.com/betbot/systock/kis/types"
)

// Small capability interfaces; callers depend on the narrowest one they need.

type QuoteGetter interface {
	Quote(ctx context.Context, symbol string) (*types.Quote, error)
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, intent types.OrderIntent) (*types.OrderHandle, error)
}

type OrderCanceler interface {
	CancelOrder(ctx context.Context, ref types.OrderRef) error
	// CancelAll returns only the ids the broker confirmed; individual failures are skipped.
	CancelAll(ctx context.Context, symbol string) ([]string, error)
}

type BalanceReader interface {
	Balance(ctx context.Context) (*types.Balance, error)
}

type OpenOrderLister interface {
	OpenOrders(ctx context.Context) ([]types.OpenOrderRecord, error)
}

type OverseasTrader interface {
	OverseasQuote(ctx context.Context, exchange types.Exchange, symbol string) (*types.OverseasQuote, error)
	PlaceOverseasOrder(ctx context.Context, intent types.OverseasOrderIntent) (*types.OverseasOrderHandle, error)
	OverseasBalance(ctx context.Context, exchange types.Exchange, currency string) (*types.OverseasBalance, error)
}

// Broker is the full capability set of one brokerage account.
type Broker interface {
	QuoteGetter
	OrderPlacer
	OrderCanceler
	BalanceReader
	OpenOrderLister
	OverseasTrader
}
