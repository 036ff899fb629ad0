package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmocoin-bot/logging"
	"gmocoin-bot/models"
)

type fakeExchange struct {
	margin    models.Margin
	active    []models.Order
	orders    []models.Order
	positions []models.PositionData

	placed    []models.OrderRequest
	closes    []models.CloseOrderRequest
	bulk      []models.CloseBulkOrderRequest
	canceled  [][]int64
	placeErr  error
	nextID    int64
	ordersReq [][]int64
}

func (f *fakeExchange) Status(context.Context) (string, error) { return "OPEN", nil }
func (f *fakeExchange) Ticker(context.Context, string) (models.Ticker, error) {
	return models.Ticker{}, nil
}
func (f *fakeExchange) Margin(context.Context) (models.Margin, error) { return f.margin, nil }
func (f *fakeExchange) ActiveOrders(context.Context, string) ([]models.Order, error) {
	return f.active, nil
}
func (f *fakeExchange) Orders(_ context.Context, ids []int64) ([]models.Order, error) {
	f.ordersReq = append(f.ordersReq, ids)
	return f.orders, nil
}
func (f *fakeExchange) OpenPositions(context.Context, string) ([]models.PositionData, error) {
	return f.positions, nil
}
func (f *fakeExchange) PlaceOrder(_ context.Context, r models.OrderRequest) (int64, error) {
	if f.placeErr != nil {
		return 0, f.placeErr
	}
	f.placed = append(f.placed, r)
	f.nextID++
	return f.nextID, nil
}
func (f *fakeExchange) CloseOrder(_ context.Context, r models.CloseOrderRequest) (int64, error) {
	f.closes = append(f.closes, r)
	f.nextID++
	return f.nextID, nil
}
func (f *fakeExchange) CloseBulkOrder(_ context.Context, r models.CloseBulkOrderRequest) (int64, error) {
	f.bulk = append(f.bulk, r)
	f.nextID++
	return f.nextID, nil
}
func (f *fakeExchange) CancelOrders(_ context.Context, ids []int64) error {
	f.canceled = append(f.canceled, append([]int64(nil), ids...))
	return nil
}
func (f *fakeExchange) WSToken(context.Context) (string, error)     { return "t", nil }
func (f *fakeExchange) ExtendWSToken(context.Context, string) error { return nil }
func (f *fakeExchange) DeleteWSToken(context.Context, string) error { return nil }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newOM(ex *fakeExchange) *OrderManager {
	return NewOrderManager(ex, "BTC_JPY", 4, time.Minute, logging.Nop())
}

func TestEntryChecksMargin(t *testing.T) {
	ex := &fakeExchange{margin: models.Margin{AvailableAmount: "12499"}}
	om := newOM(ex)

	// 5,000,000 * 0.01 / 4 = 12500
	res, err := om.Entry(context.Background(), "BUY", d("5000000"), d("0.01"))
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, ex.placed)

	ex.margin.AvailableAmount = "12500"
	res, err = om.Entry(context.Background(), "BUY", d("5000000.7"), d("0.01"))
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	require.Len(t, ex.placed, 1)
	assert.Equal(t, models.OrderRequest{Symbol: "BTC_JPY", Side: "BUY", ExecutionType: "LIMIT", Price: "5000000", Size: "0.01"}, ex.placed[0])
}

func TestEntryPropagatesRejection(t *testing.T) {
	ex := &fakeExchange{margin: models.Margin{AvailableAmount: "99999999"}, placeErr: errors.New("ERR-201")}
	_, err := newOM(ex).Entry(context.Background(), "SELL", d("100"), d("1"))
	assert.Error(t, err)
}

func TestCloseUsesFOKAtCurrentPrice(t *testing.T) {
	ex := &fakeExchange{}
	om := newOM(ex)
	p := &models.Position{ID: 42, Side: "BUY", Size: d("0.02"), CurrentPrice: d("5100000")}
	_, err := om.Close(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, ex.closes, 1)
	c := ex.closes[0]
	assert.Equal(t, "SELL", c.Side)
	assert.Equal(t, "FOK", c.TimeInForce)
	assert.Equal(t, "5100000", c.Price)
	assert.Equal(t, []models.SettlePosition{{PositionID: 42, Size: "0.02"}}, c.SettlePosition)
}

func TestCloseBulkSumsSizes(t *testing.T) {
	ex := &fakeExchange{}
	om := newOM(ex)
	ps := []*models.Position{
		{ID: 1, Side: "SELL", Size: d("0.01"), CurrentPrice: d("5000000")},
		{ID: 2, Side: "SELL", Size: d("0.02"), CurrentPrice: d("5000100")},
	}
	_, err := om.CloseBulk(context.Background(), "SELL", ps)
	require.NoError(t, err)
	require.Len(t, ex.bulk, 1)
	assert.Equal(t, models.CloseBulkOrderRequest{Symbol: "BTC_JPY", Side: "BUY", ExecutionType: "LIMIT", TimeInForce: "FOK", Price: "5000000", Size: "0.03"}, ex.bulk[0])

	_, err = om.CloseBulk(context.Background(), "BUY", nil)
	assert.ErrorIs(t, err, ErrNoPositions)
}

func TestSweepCancelsStaleOrders(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 10, 0, 0, time.UTC)
	ex := &fakeExchange{
		active: []models.Order{
			{OrderID: 1, SettleType: "CLOSE", Timestamp: "2024-01-01T00:08:00.000Z"},
			{OrderID: 2, SettleType: "CLOSE", Timestamp: "2024-01-01T00:09:30.000Z"},
			{OrderID: 3, SettleType: "OPEN", Timestamp: "2024-01-01T00:00:00.000Z"},
		},
		orders: []models.Order{
			{OrderID: 3, Status: "ORDERED", Timestamp: "2024-01-01T00:00:00.000Z"},
			{OrderID: 4, Status: "ORDERED", Timestamp: "2024-01-01T00:09:00.000Z"},
			{OrderID: 5, Status: "EXECUTED", Timestamp: "2024-01-01T00:00:00.000Z"},
			{OrderID: 6, Status: "WAITING", Timestamp: "2024-01-01T00:00:00.000Z"},
		},
	}
	om := newOM(ex)
	res, err := om.Sweep(context.Background(), []int64{3, 4, 5, 6, 7}, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, res.Canceled)
	assert.ElementsMatch(t, []int64{5, 7}, res.Resolved)
	assert.Equal(t, [][]int64{{1, 3}}, ex.canceled)
}

func TestSweepLimitsLookup(t *testing.T) {
	ex := &fakeExchange{}
	om := newOM(ex)
	om.MaxCancelIDs = 2
	_, err := om.Sweep(context.Background(), []int64{1, 2, 3}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 2}}, ex.ordersReq)
}

func TestRestore(t *testing.T) {
	ex := &fakeExchange{
		margin: models.Margin{ActualProfitLoss: "1000000"},
		active: []models.Order{
			{OrderID: 10, SettleType: "OPEN"},
			{OrderID: 11, SettleType: "CLOSE"},
		},
		positions: []models.PositionData{{PositionID: 7, Side: "BUY", Size: "0.01", Price: "100"}},
	}
	r, err := newOM(ex).Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, r.Pending)
	require.Len(t, r.Positions, 1)
	assert.Equal(t, int64(7), r.Positions[0].ID)
	assert.Equal(t, "1000000", r.Balance.String())
	assert.Equal(t, [][]int64{{11}}, ex.canceled)
}
