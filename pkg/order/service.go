// Package order submits futures orders and reads market prices.
package order

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"futures-trader/internal/transport"
	"futures-trader/pkg/core"
)

// Service places orders and fetches prices on top of the transport client.
type Service struct {
	client *transport.Client
	logger zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates an order service on top of the transport client.
func New(client *transport.Client, opts ...Option) *Service {
	s := &Service{
		client: client,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tickerPrice is the raw response of the price endpoint.
type tickerPrice struct {
	Symbol string      `json:"symbol"`
	Price  apd.Decimal `json:"price"`
	Time   int64       `json:"time"`
}

// Price fetches the current price for a symbol. The endpoint is public and
// the call is deliberately unsigned.
func (s *Service) Price(ctx context.Context, symbol string) (apd.Decimal, error) {
	if symbol == "" {
		return apd.Decimal{}, core.NewError(core.KindValidation, "symbol is required")
	}

	params := core.NewParams().Set("symbol", symbol)
	body, err := s.client.Public(ctx, http.MethodGet, "/fapi/v1/ticker/price", params)
	if err != nil {
		return apd.Decimal{}, err
	}

	var raw tickerPrice
	if err := transport.Decode(body, &raw); err != nil {
		return apd.Decimal{}, err
	}
	if raw.Symbol == "" {
		return apd.Decimal{}, core.NewError(core.KindProtocol, "price response missing symbol")
	}
	return raw.Price, nil
}

// futuresOrderAck is the raw acknowledgment from the order endpoint.
type futuresOrderAck struct {
	OrderID       int64       `json:"orderId"`
	Symbol        string      `json:"symbol"`
	Status        string      `json:"status"`
	ClientOrderID string      `json:"clientOrderId"`
	Price         apd.Decimal `json:"price"`
	AvgPrice      apd.Decimal `json:"avgPrice"`
	OrigQty       apd.Decimal `json:"origQty"`
	ExecutedQty   apd.Decimal `json:"executedQty"`
	ReduceOnly    bool        `json:"reduceOnly"`
	UpdateTime    int64       `json:"updateTime"`
}

// Place validates and submits one order. Validation failures are local and
// cause zero network calls. On any returned error the order must be
// treated as NOT confirmed placed; in particular a timeout means the
// outcome is unknown, and a blind resubmission can duplicate the order.
func (s *Service) Place(ctx context.Context, req *Request) (*core.OrderAck, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("symbol", req.Symbol).
		Str("side", req.Side.String()).
		Str("type", req.Type.String()).
		Str("quantity", req.Quantity.Text('f')).
		Bool("test", req.Test).
		Msg("placing order")

	body, err := s.client.Signed(ctx, http.MethodPost, req.path(), req.params())
	if err != nil {
		return nil, err
	}

	// The test endpoint acknowledges with an empty object.
	if req.Test {
		return &core.OrderAck{Symbol: req.Symbol}, nil
	}

	var raw futuresOrderAck
	if err := transport.Decode(body, &raw); err != nil {
		return nil, err
	}
	return normalizeAck(&raw)
}

func normalizeAck(raw *futuresOrderAck) (*core.OrderAck, error) {
	status, err := core.ParseOrderStatus(raw.Status)
	if err != nil {
		return nil, err
	}

	ack := &core.OrderAck{
		OrderID:       raw.OrderID,
		ClientOrderID: raw.ClientOrderID,
		Symbol:        raw.Symbol,
		Status:        status,
		Price:         raw.Price,
		OrigQty:       raw.OrigQty,
		ExecutedQty:   raw.ExecutedQty,
		AvgPrice:      raw.AvgPrice,
	}
	if raw.UpdateTime > 0 {
		ack.UpdateTime = time.UnixMilli(raw.UpdateTime)
	}
	return ack, nil
}
