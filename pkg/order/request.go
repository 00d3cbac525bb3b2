package order

import (
	"github.com/cockroachdb/apd/v3"

	"futures-trader/pkg/core"
)

// Request describes one order to submit. Quantity and price are carried as
// exact decimals end to end; serialization never truncates them, since a
// silently shortened quantity would change order semantics.
type Request struct {
	// Symbol is the futures contract, e.g. "BTCUSDT".
	Symbol string
	// Side is the trade direction.
	Side core.OrderSide
	// Type selects market or limit execution.
	Type core.OrderType
	// Quantity is the order size in base asset. Must be positive.
	Quantity apd.Decimal
	// Price is the limit price. Required for limit orders, forbidden for
	// market orders.
	Price apd.Decimal
	// TimeInForce applies to limit orders only; defaults to GTC.
	TimeInForce core.TimeInForce
	// ReduceOnly restricts the order to reducing an existing position.
	ReduceOnly bool
	// ClientOrderID is an optional client-assigned identifier.
	ClientOrderID string
	// Test routes the order to the validation-only endpoint: the exchange
	// checks it without creating an order.
	Test bool
}

// Validate checks the request against the data-model invariants. It runs
// before any network I/O: an invalid order is never partially submitted.
func (r *Request) Validate() error {
	if r == nil {
		return core.NewError(core.KindValidation, "order request is required")
	}
	if r.Symbol == "" {
		return core.NewError(core.KindValidation, "symbol is required")
	}
	if r.Side != core.SideBuy && r.Side != core.SideSell {
		return core.NewError(core.KindValidation, "invalid order side")
	}
	if r.Type != core.TypeMarket && r.Type != core.TypeLimit {
		return core.NewError(core.KindValidation, "invalid order type")
	}
	if r.Quantity.IsZero() || r.Quantity.Negative {
		return core.NewError(core.KindValidation, "quantity must be positive")
	}
	switch r.Type {
	case core.TypeLimit:
		if r.Price.IsZero() || r.Price.Negative {
			return core.NewError(core.KindValidation, "price must be positive for LIMIT orders")
		}
	case core.TypeMarket:
		if !r.Price.IsZero() {
			return core.NewError(core.KindValidation, "price must not be set for MARKET orders")
		}
	}
	return nil
}

// params serializes the request with the exchange's exact field names, in
// a fixed insertion order. The signature is computed over this ordering.
func (r *Request) params() *core.Params {
	p := core.NewParams()
	p.Set("symbol", r.Symbol)
	p.Set("side", r.Side.String())
	p.Set("type", r.Type.String())
	p.Set("quantity", r.Quantity.Text('f'))
	if r.Type == core.TypeLimit {
		p.Set("price", r.Price.Text('f'))
		p.Set("timeInForce", r.TimeInForce.String())
	}
	if r.ReduceOnly {
		p.Set("reduceOnly", "true")
	}
	if r.ClientOrderID != "" {
		p.Set("newClientOrderId", r.ClientOrderID)
	}
	return p
}

// path returns the submission endpoint, honoring test mode.
func (r *Request) path() string {
	if r.Test {
		return "/fapi/v1/order/test"
	}
	return "/fapi/v1/order"
}
