package order

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures-trader/pkg/core"
)

func TestBuilder_MarketOrder(t *testing.T) {
	req, err := NewBuilder("BTCUSDT").
		Buy().
		Market().
		Quantity("0.001").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", req.Symbol)
	assert.Equal(t, core.SideBuy, req.Side)
	assert.Equal(t, core.TypeMarket, req.Type)
	assert.Equal(t, "0.001", req.Quantity.Text('f'))
	assert.False(t, req.Test)
}

func TestBuilder_LimitOrder(t *testing.T) {
	req, err := NewBuilder("ETHUSDT").
		Sell().
		Limit().
		Price("3200.50").
		Quantity("1.5").
		IOC().
		ClientOrderID("my-order-1").
		Build()
	require.NoError(t, err)

	assert.Equal(t, core.SideSell, req.Side)
	assert.Equal(t, core.TypeLimit, req.Type)
	assert.Equal(t, "3200.50", req.Price.Text('f'))
	assert.Equal(t, core.IOC, req.TimeInForce)
	assert.Equal(t, "my-order-1", req.ClientOrderID)
}

func TestBuilder_DecimalSetters(t *testing.T) {
	var price, qty apd.Decimal
	_, _, err := price.SetString("100.25")
	require.NoError(t, err)
	_, _, err = qty.SetString("2")
	require.NoError(t, err)

	req, buildErr := NewBuilder("BTCUSDT").
		Buy().
		Limit().
		PriceDecimal(price).
		QuantityDecimal(qty).
		GTC().
		Build()
	require.NoError(t, buildErr)

	assert.Equal(t, "100.25", req.Price.Text('f'))
	assert.Equal(t, "2", req.Quantity.Text('f'))
}

func TestBuilder_ReduceOnlyAndTest(t *testing.T) {
	req, err := NewBuilder("BTCUSDT").
		Sell().
		Market().
		Quantity("0.01").
		ReduceOnly().
		Test().
		Build()
	require.NoError(t, err)

	assert.True(t, req.ReduceOnly)
	assert.True(t, req.Test)
	assert.Equal(t, "/fapi/v1/order/test", req.path())
}

func TestBuilder_InvalidPrice(t *testing.T) {
	_, err := NewBuilder("BTCUSDT").
		Buy().
		Limit().
		Price("not-a-number").
		Quantity("1").
		Build()
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestBuilder_InvalidQuantity(t *testing.T) {
	_, err := NewBuilder("BTCUSDT").
		Buy().
		Market().
		Quantity("1.2.3").
		Build()
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	_, err := NewBuilder("BTCUSDT").
		Buy().
		Limit().
		Price("bogus").
		Quantity("also bogus").
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price")
}

func TestRequest_Validate_LimitWithoutPrice(t *testing.T) {
	req := &Request{Symbol: "BTCUSDT", Side: core.SideBuy, Type: core.TypeLimit}
	req.Quantity.SetInt64(1)

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestRequest_Validate_MarketWithPrice(t *testing.T) {
	req := &Request{Symbol: "BTCUSDT", Side: core.SideBuy, Type: core.TypeMarket}
	req.Quantity.SetInt64(1)
	req.Price.SetInt64(100)

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestRequest_Validate_NonPositiveQuantity(t *testing.T) {
	req := &Request{Symbol: "BTCUSDT", Side: core.SideBuy, Type: core.TypeMarket}

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))

	req.Quantity.SetInt64(-1)
	err = req.Validate()
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestRequest_Validate_MissingSymbol(t *testing.T) {
	req := &Request{Side: core.SideBuy, Type: core.TypeMarket}
	req.Quantity.SetInt64(1)

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestRequest_Validate_Nil(t *testing.T) {
	var req *Request
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestRequest_Params_FieldOrderAndNames(t *testing.T) {
	req, err := NewBuilder("BTCUSDT").
		Buy().
		Limit().
		Price("50000").
		Quantity("0.001").
		GTC().
		Build()
	require.NoError(t, err)

	p := req.params()
	assert.Equal(t, []string{"symbol", "side", "type", "quantity", "price", "timeInForce"}, p.Keys())
	assert.Equal(t, "symbol=BTCUSDT&side=BUY&type=LIMIT&quantity=0.001&price=50000&timeInForce=GTC", p.Encode())
}

func TestRequest_Params_MarketOmitsPriceAndTIF(t *testing.T) {
	req, err := NewBuilder("BTCUSDT").
		Sell().
		Market().
		Quantity("0.5").
		Build()
	require.NoError(t, err)

	p := req.params()
	assert.Equal(t, []string{"symbol", "side", "type", "quantity"}, p.Keys())
}

func TestRequest_Params_ReduceOnlyAndClientID(t *testing.T) {
	req, err := NewBuilder("BTCUSDT").
		Sell().
		Market().
		Quantity("0.5").
		ReduceOnly().
		ClientOrderID("cid-7").
		Build()
	require.NoError(t, err)

	p := req.params()
	v, _ := p.Get("reduceOnly")
	assert.Equal(t, "true", v)
	v, _ = p.Get("newClientOrderId")
	assert.Equal(t, "cid-7", v)
}
