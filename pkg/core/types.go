package core

import (
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order (buy or sell).
type OrderSide int

const (
	// SideBuy indicates an order to purchase the base asset.
	SideBuy OrderSide = iota
	// SideSell indicates an order to sell the base asset.
	SideSell
)

// String returns the wire representation of the order side ("BUY" or "SELL").
func (s OrderSide) String() string {
	return [...]string{"BUY", "SELL"}[s]
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ParseOrderSide converts user or wire input to an OrderSide.
// It accepts any casing.
func ParseOrderSide(s string) (OrderSide, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return 0, NewError(KindValidation, "invalid order side %q (want BUY or SELL)", s)
	}
}

// OrderType represents how an order executes.
type OrderType int

const (
	// TypeMarket executes immediately at the best available price.
	TypeMarket OrderType = iota
	// TypeLimit executes at the given price or better.
	TypeLimit
)

// String returns the wire representation of the order type.
func (t OrderType) String() string {
	return [...]string{"MARKET", "LIMIT"}[t]
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// ParseOrderType converts user or wire input to an OrderType.
// It accepts any casing.
func ParseOrderType(s string) (OrderType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MARKET":
		return TypeMarket, nil
	case "LIMIT":
		return TypeLimit, nil
	default:
		return 0, NewError(KindValidation, "invalid order type %q (want MARKET or LIMIT)", s)
	}
}

// TimeInForce defines how long a limit order remains active.
type TimeInForce int

const (
	// GTC (Good Till Canceled) keeps the order active until filled or canceled.
	GTC TimeInForce = iota
	// IOC (Immediate Or Cancel) cancels any unfilled portion immediately.
	IOC
	// FOK (Fill Or Kill) requires complete immediate execution.
	FOK
	// GTX (Good Till Crossing) rejects the order if it would take liquidity.
	GTX
)

// String returns the wire representation of the time in force.
func (t TimeInForce) String() string {
	return [...]string{"GTC", "IOC", "FOK", "GTX"}[t]
}

// ParseTimeInForce converts user input to a TimeInForce. It accepts any casing.
func ParseTimeInForce(s string) (TimeInForce, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GTC":
		return GTC, nil
	case "IOC":
		return IOC, nil
	case "FOK":
		return FOK, nil
	case "GTX":
		return GTX, nil
	default:
		return 0, NewError(KindValidation, "invalid time in force %q (want GTC, IOC, FOK or GTX)", s)
	}
}

// OrderStatus represents the state of an order as acknowledged by the exchange.
type OrderStatus int

const (
	// StatusNew indicates the order was accepted by the matching engine.
	StatusNew OrderStatus = iota
	// StatusPartiallyFilled indicates partial execution.
	StatusPartiallyFilled
	// StatusFilled indicates complete execution.
	StatusFilled
	// StatusCanceled indicates the order was canceled.
	StatusCanceled
	// StatusRejected indicates the order was rejected.
	StatusRejected
	// StatusExpired indicates the order expired unfilled.
	StatusExpired
)

// String returns the wire representation of the order status.
func (s OrderStatus) String() string {
	return [...]string{"NEW", "PARTIALLY_FILLED", "FILLED", "CANCELED", "REJECTED", "EXPIRED"}[s]
}

// IsTerminal returns true when no further state changes are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusFilled || s == StatusCanceled || s == StatusRejected || s == StatusExpired
}

// ParseOrderStatus converts a wire status string to an OrderStatus.
// An unrecognized status is a protocol error: the response did not match
// the documented schema and must not be interpreted optimistically.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NEW":
		return StatusNew, nil
	case "PARTIALLY_FILLED":
		return StatusPartiallyFilled, nil
	case "FILLED":
		return StatusFilled, nil
	case "CANCELED":
		return StatusCanceled, nil
	case "REJECTED":
		return StatusRejected, nil
	case "EXPIRED":
		return StatusExpired, nil
	default:
		return 0, NewError(KindProtocol, "unrecognized order status %q", s)
	}
}

// BalanceEntry is a read-only snapshot of one asset's futures balance.
type BalanceEntry struct {
	// Asset is the currency symbol (e.g. "USDT").
	Asset string `json:"asset"`
	// WalletBalance is the total wallet balance for the asset.
	WalletBalance apd.Decimal `json:"wallet_balance"`
	// CrossWalletBalance is the balance usable as cross margin.
	CrossWalletBalance apd.Decimal `json:"cross_wallet_balance"`
	// AvailableBalance is the balance available for new orders.
	AvailableBalance apd.Decimal `json:"available_balance"`
}

// OrderAck is the exchange's confirmation record for a submitted order.
// It is distinct from later fill or execution updates: an ack only proves
// the order reached the matching engine.
type OrderAck struct {
	// OrderID is the exchange-assigned order identifier.
	OrderID int64 `json:"order_id"`
	// ClientOrderID is the client-assigned identifier, when one was sent.
	ClientOrderID string `json:"client_order_id"`
	// Symbol is the trading pair the order was placed on.
	Symbol string `json:"symbol"`
	// Status is the order state at acknowledgment time.
	Status OrderStatus `json:"status"`
	// Price is the limit price; zero for market orders.
	Price apd.Decimal `json:"price"`
	// OrigQty is the submitted quantity.
	OrigQty apd.Decimal `json:"orig_qty"`
	// ExecutedQty is the quantity already executed at ack time.
	ExecutedQty apd.Decimal `json:"executed_qty"`
	// AvgPrice is the average fill price, when any quantity executed.
	AvgPrice apd.Decimal `json:"avg_price"`
	// UpdateTime is the exchange timestamp of the acknowledgment.
	UpdateTime time.Time `json:"update_time"`
}
