// Package account reads futures account balances over signed endpoints.
package account

import (
	"context"
	"net/http"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"futures-trader/internal/transport"
	"futures-trader/pkg/core"
)

// Service fetches balance snapshots for the authenticated account.
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

// New creates an account service on top of the transport client.
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

// futuresBalance is the raw per-asset entry from the balance endpoint.
type futuresBalance struct {
	AccountAlias       string      `json:"accountAlias"`
	Asset              string      `json:"asset"`
	Balance            apd.Decimal `json:"balance"`
	CrossWalletBalance apd.Decimal `json:"crossWalletBalance"`
	AvailableBalance   apd.Decimal `json:"availableBalance"`
	MaxWithdrawAmount  apd.Decimal `json:"maxWithdrawAmount"`
	UpdateTime         int64       `json:"updateTime"`
}

// Balances fetches the balance for every asset in the account, preserving
// the order the exchange returned. An empty account is a valid result.
func (s *Service) Balances(ctx context.Context) ([]core.BalanceEntry, error) {
	body, err := s.client.Signed(ctx, http.MethodGet, "/fapi/v2/balance", core.NewParams())
	if err != nil {
		return nil, err
	}

	var raw []futuresBalance
	if err := transport.Decode(body, &raw); err != nil {
		return nil, err
	}

	entries := make([]core.BalanceEntry, 0, len(raw))
	for _, b := range raw {
		entries = append(entries, core.BalanceEntry{
			Asset:              b.Asset,
			WalletBalance:      b.Balance,
			CrossWalletBalance: b.CrossWalletBalance,
			AvailableBalance:   b.AvailableBalance,
		})
	}

	s.logger.Debug().Int("assets", len(entries)).Msg("fetched balances")
	return entries, nil
}

// Balance fetches the balance for a single asset. The second return value
// reports whether the asset was present in the account.
func (s *Service) Balance(ctx context.Context, asset string) (core.BalanceEntry, bool, error) {
	entries, err := s.Balances(ctx)
	if err != nil {
		return core.BalanceEntry{}, false, err
	}
	for _, e := range entries {
		if e.Asset == asset {
			return e, true, nil
		}
	}
	return core.BalanceEntry{}, false, nil
}
