package order

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures-trader/internal/sign"
	"futures-trader/internal/transport"
	"futures-trader/pkg/core"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	signer := sign.New("testsecret", 5*time.Second)
	client, err := transport.New(&transport.Config{
		BaseURL: server.URL,
		APIKey:  "testkey",
		Timeout: 2 * time.Second,
	}, signer)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return New(client), &calls
}

func TestService_Price(t *testing.T) {
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/fapi/v1/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		// Price endpoint is public: no signature, no key header.
		assert.Empty(t, r.URL.Query().Get("signature"))
		assert.Empty(t, r.Header.Get("X-MBX-APIKEY"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"65000.10","time":1617939110373}`))
	}))

	price, err := svc.Price(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "65000.10", price.Text('f'))
	assert.Equal(t, int64(1), calls.Load())
}

func TestService_Price_EmptySymbol(t *testing.T) {
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := svc.Price(context.Background(), "")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
	assert.Equal(t, int64(0), calls.Load())
}

func TestService_Price_SchemaMismatch(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"price":"65000.10"}`))
	}))

	_, err := svc.Price(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindProtocol))
}

func TestService_Place_MarketOrder(t *testing.T) {
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/fapi/v1/order", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "BUY", q.Get("side"))
		assert.Equal(t, "MARKET", q.Get("type"))
		assert.Equal(t, "0.001", q.Get("quantity"))
		assert.Empty(t, q.Get("price"))
		assert.NotEmpty(t, q.Get("signature"))
		assert.Equal(t, "testkey", r.Header.Get("X-MBX-APIKEY"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"orderId":123,"symbol":"BTCUSDT","status":"FILLED","clientOrderId":"x","price":"0","avgPrice":"65000.10","origQty":"0.001","executedQty":"0.001","updateTime":1617939110373}`))
	}))

	req, err := NewBuilder("BTCUSDT").Buy().Market().Quantity("0.001").Build()
	require.NoError(t, err)

	ack, err := svc.Place(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(123), ack.OrderID)
	assert.Equal(t, core.StatusFilled, ack.Status)
	assert.Equal(t, "0.001", ack.ExecutedQty.Text('f'))
	assert.Equal(t, "65000.10", ack.AvgPrice.Text('f'))
	assert.Equal(t, time.UnixMilli(1617939110373), ack.UpdateTime)
	assert.Equal(t, int64(1), calls.Load())
}

func TestService_Place_MinimalAck(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"orderId":123,"status":"FILLED"}`))
	}))

	req, err := NewBuilder("BTCUSDT").Buy().Market().Quantity("0.001").Build()
	require.NoError(t, err)

	ack, err := svc.Place(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(123), ack.OrderID)
	assert.Equal(t, core.StatusFilled, ack.Status)
	assert.True(t, ack.UpdateTime.IsZero())
}

func TestService_Place_LimitWithoutPrice_NoNetworkCall(t *testing.T) {
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := &Request{Symbol: "BTCUSDT", Side: core.SideBuy, Type: core.TypeLimit}
	req.Quantity.SetInt64(1)

	_, err := svc.Place(context.Background(), req)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
	assert.Equal(t, int64(0), calls.Load(), "invalid order must never reach the network")
}

func TestService_Place_NonPositiveQuantity_NoNetworkCall(t *testing.T) {
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := &Request{Symbol: "BTCUSDT", Side: core.SideBuy, Type: core.TypeMarket}

	_, err := svc.Place(context.Background(), req)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
	assert.Equal(t, int64(0), calls.Load())
}

func TestService_Place_InsufficientBalance_NoRetry(t *testing.T) {
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-2010,"msg":"Insufficient balance"}`))
	}))

	req, err := NewBuilder("BTCUSDT").Buy().Market().Quantity("0.001").Build()
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), req)
	require.Error(t, err)

	e, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.KindExchange, e.Kind)
	assert.Equal(t, -2010, e.Code)
	assert.True(t, core.IsInsufficientBalance(err))
	assert.Equal(t, int64(1), calls.Load(), "exchange rejection must not be retried")
}

func TestService_Place_TestEndpoint(t *testing.T) {
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/order/test", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))

	req, err := NewBuilder("BTCUSDT").Buy().Market().Quantity("0.001").Test().Build()
	require.NoError(t, err)

	ack, err := svc.Place(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", ack.Symbol)
	assert.Equal(t, int64(0), ack.OrderID)
	assert.Equal(t, int64(1), calls.Load())
}

func TestService_Place_UnknownStatus(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"orderId":123,"status":"TELEPORTED"}`))
	}))

	req, err := NewBuilder("BTCUSDT").Buy().Market().Quantity("0.001").Build()
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), req)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindProtocol))
}

func TestService_Place_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	signer := sign.New("testsecret", 5*time.Second)
	client, err := transport.New(&transport.Config{
		BaseURL: server.URL,
		APIKey:  "testkey",
		Timeout: 50 * time.Millisecond,
	}, signer)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	svc := New(client)

	req, err := NewBuilder("BTCUSDT").Buy().Market().Quantity("0.001").Build()
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), req)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindTransport))
	assert.True(t, core.IsTimeout(err), "a timed-out submission must be distinguishable: the order may still exist")
}
