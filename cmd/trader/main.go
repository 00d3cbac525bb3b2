// Command trader submits a single order to the Binance USD-M futures API.
//
// Usage:
//
//	trader -symbol BTCUSDT -side BUY -type MARKET -quantity 0.001 -testnet -test
//
// Credentials come from -api-key/-api-secret or the BINANCE_API_KEY and
// BINANCE_API_SECRET environment variables; flags win when both are set.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"futures-trader/pkg/core"
	"futures-trader/pkg/order"
	"futures-trader/pkg/workflow"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code instead of calling os.Exit so the
// deferred cleanup actually runs on the error paths.
func run() int {
	var (
		apiKey       = flag.String("api-key", "", "API key (or BINANCE_API_KEY env var)")
		apiSecret    = flag.String("api-secret", "", "API secret (or BINANCE_API_SECRET env var)")
		symbol       = flag.String("symbol", "", "contract symbol, e.g. BTCUSDT")
		side         = flag.String("side", "", "BUY or SELL")
		orderType    = flag.String("type", "", "MARKET or LIMIT")
		quantity     = flag.String("quantity", "", "order quantity (decimal)")
		price        = flag.String("price", "", "limit price (required for LIMIT)")
		timeInForce  = flag.String("time-in-force", "GTC", "GTC, IOC, FOK or GTX (LIMIT only)")
		reduceOnly   = flag.Bool("reduce-only", false, "only reduce an existing position")
		testnet      = flag.Bool("testnet", false, "use the futures testnet host")
		test         = flag.Bool("test", false, "use the validation-only order endpoint")
		balancesOnly = flag.Bool("balances-only", false, "show balances and exit without placing an order")
		recvWindow   = flag.Duration("recv-window", 5*time.Second, "signed request freshness window")
		timeout      = flag.Duration("timeout", 10*time.Second, "per-request timeout")
		debug        = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	}

	key := *apiKey
	if key == "" {
		key = os.Getenv("BINANCE_API_KEY")
	}
	secret := *apiSecret
	if secret == "" {
		secret = os.Getenv("BINANCE_API_SECRET")
	}

	creds, err := core.NewCredentials(key, secret)
	if err != nil {
		return fail(logger, err)
	}

	var req *order.Request
	if !*balancesOnly {
		req, err = buildOrder(*symbol, *side, *orderType, *quantity, *price, *timeInForce, *reduceOnly, *test)
		if err != nil {
			return fail(logger, err)
		}
	}

	cfg := core.DefaultConfig().
		WithCredentials(creds).
		WithTestnet(*testnet).
		WithRecvWindow(*recvWindow).
		WithTimeout(*timeout)

	runnerOpts := []workflow.Option{workflow.WithLogger(logger)}
	if *testnet {
		if override := os.Getenv("BINANCE_FUTURES_TESTNET_URL"); override != "" {
			runnerOpts = append(runnerOpts, workflow.WithBaseURL(override))
		}
	}

	runner, err := workflow.NewRunner(cfg, runnerOpts...)
	if err != nil {
		return fail(logger, err)
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, runErr := runner.Run(ctx, req)
	printReport(report, req)

	if runErr != nil {
		return fail(logger, runErr)
	}
	return 0
}

func buildOrder(symbol, side, orderType, quantity, price, tif string, reduceOnly, test bool) (*order.Request, error) {
	parsedSide, err := core.ParseOrderSide(side)
	if err != nil {
		return nil, err
	}
	parsedType, err := core.ParseOrderType(orderType)
	if err != nil {
		return nil, err
	}
	parsedTIF, err := core.ParseTimeInForce(tif)
	if err != nil {
		return nil, err
	}

	b := order.NewBuilder(symbol).
		Side(parsedSide).
		Type(parsedType).
		Quantity(quantity).
		TimeInForce(parsedTIF)
	if price != "" {
		b = b.Price(price)
	}
	if reduceOnly {
		b = b.ReduceOnly()
	}
	if test {
		b = b.Test()
	}
	return b.Build()
}

func printReport(report *workflow.Report, req *order.Request) {
	if report == nil {
		return
	}

	if report.Balances != nil {
		fmt.Println("Non-zero balances:")
		shown := 0
		for _, b := range report.Balances {
			if b.WalletBalance.IsZero() && b.AvailableBalance.IsZero() {
				continue
			}
			fmt.Printf("  %-8s wallet=%s available=%s\n",
				b.Asset, b.WalletBalance.Text('f'), b.AvailableBalance.Text('f'))
			shown++
		}
		if shown == 0 {
			fmt.Println("  (none)")
		}
	}

	if report.Price != nil && req != nil {
		fmt.Printf("Current price %s: %s\n", req.Symbol, report.Price.Text('f'))
	}

	if report.Ack != nil {
		if req != nil && req.Test {
			fmt.Printf("Test order for %s accepted by the exchange (no order created)\n", report.Ack.Symbol)
			return
		}
		fmt.Println("Order acknowledged:")
		fmt.Printf("  ID:        %d\n", report.Ack.OrderID)
		fmt.Printf("  Symbol:    %s\n", report.Ack.Symbol)
		fmt.Printf("  Status:    %s\n", report.Ack.Status)
		fmt.Printf("  Quantity:  %s\n", report.Ack.OrigQty.Text('f'))
		fmt.Printf("  Executed:  %s\n", report.Ack.ExecutedQty.Text('f'))
		if !report.Ack.AvgPrice.IsZero() {
			fmt.Printf("  AvgPrice:  %s\n", report.Ack.AvgPrice.Text('f'))
		}
	}

	if report.UnknownOutcome {
		fmt.Fprintln(os.Stderr, "WARNING: submission timed out; the order may or may not have been placed. Check open orders before resubmitting.")
	}
}

func fail(logger zerolog.Logger, err error) int {
	logger.Error().Msg(err.Error())
	return workflow.ExitCode(err)
}
