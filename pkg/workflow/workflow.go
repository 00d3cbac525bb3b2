// Package workflow sequences one invocation: resolve configuration, read
// balances, read the market price, submit the order, report the outcome.
// It is the single place a typed failure becomes a user-visible message
// and an exit code.
package workflow

import (
	"context"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"futures-trader/internal/ratelimit"
	"futures-trader/internal/sign"
	"futures-trader/internal/transport"
	"futures-trader/pkg/account"
	"futures-trader/pkg/core"
	"futures-trader/pkg/order"
)

// Report collects everything one run produced. Informational steps that
// failed leave their field nil without failing the run.
type Report struct {
	// Balances is the account snapshot, when the fetch succeeded.
	Balances []core.BalanceEntry
	// Price is the current market price for the order's symbol, when fetched.
	Price *apd.Decimal
	// Ack is the exchange's confirmation, on success.
	Ack *core.OrderAck
	// UnknownOutcome is set when the submission timed out: the order may
	// or may not exist on the exchange, and the runner refuses to guess.
	UnknownOutcome bool
}

// Runner owns the client stack for one invocation.
type Runner struct {
	client   *transport.Client
	accounts *account.Service
	orders   *order.Service
	logger   zerolog.Logger
	baseURL  string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger, propagated to every layer.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithBaseURL overrides the resolved exchange host. Used for self-hosted
// testnet mirrors and in tests.
func WithBaseURL(u string) Option {
	return func(r *Runner) {
		r.baseURL = u
	}
}

// NewRunner builds the signer, transport, and services from the config.
// Credentials are optional only when every call in the run is public.
func NewRunner(cfg *core.Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}

	var signer *sign.Signer
	var apiKey string
	if cfg.Credentials != nil {
		signer = sign.New(cfg.Credentials.SecretKey, cfg.RecvWindow)
		apiKey = cfg.Credentials.APIKey
	}

	baseURL := cfg.BaseURL()
	if r.baseURL != "" {
		baseURL = r.baseURL
	}

	client, err := transport.New(&transport.Config{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: cfg.Timeout,
	}, signer,
		transport.WithLogger(r.logger),
		transport.WithLimiter(ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitPeriod)),
	)
	if err != nil {
		return nil, err
	}

	r.client = client
	r.accounts = account.New(client, account.WithLogger(r.logger))
	r.orders = order.New(client, order.WithLogger(r.logger))
	return r, nil
}

// Close releases the transport resources.
func (r *Runner) Close() error {
	return r.client.Close()
}

// Accounts exposes the account service for callers that only need reads.
func (r *Runner) Accounts() *account.Service {
	return r.accounts
}

// Orders exposes the order service.
func (r *Runner) Orders() *order.Service {
	return r.orders
}

// Run executes the balance/price/submit sequence for req. A nil req runs
// the informational steps only (balances display). Balance and price
// fetches are best effort: their failure is logged, not fatal. The order
// submission is the one step whose failure fails the run, and it is never
// retried here.
func (r *Runner) Run(ctx context.Context, req *order.Request) (*Report, error) {
	report := &Report{}

	if err := r.client.SyncClock(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("failed to sync exchange clock, using local time")
	}

	balances, err := r.accounts.Balances(ctx)
	if err != nil {
		if req == nil {
			return report, err
		}
		r.logger.Warn().Err(err).Msg("failed to fetch balances")
	} else {
		report.Balances = balances
	}

	if req == nil {
		return report, nil
	}

	price, err := r.orders.Price(ctx, req.Symbol)
	if err != nil {
		r.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("failed to fetch price")
	} else {
		report.Price = &price
	}

	ack, err := r.orders.Place(ctx, req)
	if err != nil {
		if core.IsTimeout(err) {
			// A lost acknowledgment and a failed order look identical
			// from here. Surface the ambiguity instead of resolving it.
			report.UnknownOutcome = true
			r.logger.Error().Err(err).
				Msg("order submission timed out: outcome UNKNOWN, the order may exist on the exchange; do not blindly resubmit")
		}
		return report, err
	}

	report.Ack = ack
	return report, nil
}

// ExitCode maps a run error to the process exit code. Configuration and
// validation problems are usage errors (2); everything else is a runtime
// failure (1).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if core.IsKind(err, core.KindConfig) || core.IsKind(err, core.KindValidation) {
		return 2
	}
	return 1
}
