package order

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"futures-trader/pkg/core"
)

// Builder provides a fluent interface for constructing order requests.
// It accumulates errors and reports them on Build.
//
// Example:
//
//	req, err := order.NewBuilder("BTCUSDT").
//	    Buy().
//	    Limit().
//	    Price("50000").
//	    Quantity("0.001").
//	    Build()
type Builder struct {
	req *Request
	err error
}

// NewBuilder creates a builder for the given futures contract.
func NewBuilder(symbol string) *Builder {
	return &Builder{
		req: &Request{Symbol: symbol},
	}
}

// Side sets the order side.
func (b *Builder) Side(side core.OrderSide) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Side = side
	return b
}

// Buy sets the order side to buy.
func (b *Builder) Buy() *Builder {
	return b.Side(core.SideBuy)
}

// Sell sets the order side to sell.
func (b *Builder) Sell() *Builder {
	return b.Side(core.SideSell)
}

// Type sets the order type.
func (b *Builder) Type(orderType core.OrderType) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Type = orderType
	return b
}

// Market sets the order type to market.
func (b *Builder) Market() *Builder {
	return b.Type(core.TypeMarket)
}

// Limit sets the order type to limit.
func (b *Builder) Limit() *Builder {
	return b.Type(core.TypeLimit)
}

// Price sets the limit price from its string representation.
func (b *Builder) Price(price string) *Builder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.Price.SetString(price); err != nil {
		b.err = core.NewError(core.KindValidation, "parse price %q: %v", price, err)
	}
	return b
}

// PriceDecimal sets the limit price from an apd.Decimal value.
func (b *Builder) PriceDecimal(price apd.Decimal) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Price.Set(&price)
	return b
}

// Quantity sets the order quantity from its string representation.
func (b *Builder) Quantity(qty string) *Builder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.Quantity.SetString(qty); err != nil {
		b.err = core.NewError(core.KindValidation, "parse quantity %q: %v", qty, err)
	}
	return b
}

// QuantityDecimal sets the order quantity from an apd.Decimal value.
func (b *Builder) QuantityDecimal(qty apd.Decimal) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Quantity.Set(&qty)
	return b
}

// TimeInForce sets the time-in-force policy.
func (b *Builder) TimeInForce(tif core.TimeInForce) *Builder {
	if b.err != nil {
		return b
	}
	b.req.TimeInForce = tif
	return b
}

// GTC sets the time-in-force to Good-Till-Canceled.
func (b *Builder) GTC() *Builder {
	return b.TimeInForce(core.GTC)
}

// IOC sets the time-in-force to Immediate-Or-Cancel.
func (b *Builder) IOC() *Builder {
	return b.TimeInForce(core.IOC)
}

// FOK sets the time-in-force to Fill-Or-Kill.
func (b *Builder) FOK() *Builder {
	return b.TimeInForce(core.FOK)
}

// ReduceOnly restricts the order to reducing an existing position.
func (b *Builder) ReduceOnly() *Builder {
	if b.err != nil {
		return b
	}
	b.req.ReduceOnly = true
	return b
}

// ClientOrderID sets a client-assigned identifier for order tracking.
func (b *Builder) ClientOrderID(id string) *Builder {
	if b.err != nil {
		return b
	}
	b.req.ClientOrderID = id
	return b
}

// Test routes the order to the validation-only endpoint.
func (b *Builder) Test() *Builder {
	if b.err != nil {
		return b
	}
	b.req.Test = true
	return b
}

// Build validates and returns the constructed request.
func (b *Builder) Build() (*Request, error) {
	if b.err != nil {
		return nil, fmt.Errorf("build order: %w", b.err)
	}
	if err := b.req.Validate(); err != nil {
		return nil, err
	}
	return b.req, nil
}
