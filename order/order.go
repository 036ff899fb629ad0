package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gmocoin-bot/interfaces"
	"gmocoin-bot/internal/constants"
	"gmocoin-bot/internal/utils"
	"gmocoin-bot/logging"
	"gmocoin-bot/metrics"
	"gmocoin-bot/models"
)

// ErrNoPositions is returned by CloseBulk when there is nothing to settle.
var ErrNoPositions = errors.New("no positions to close")

// EntryResult describes what an entry attempt did. Skipped entries are not
// errors: the margin check failed.
type EntryResult struct {
	Skipped bool
	OrderID int64
	// Position is set when the executor fills synchronously (paper trading).
	Position *models.Position
}

// CloseResult describes a close request. Settled lists positions that were
// closed synchronously; live closes settle later through execution events.
type CloseResult struct {
	OrderID int64
	Settled []*models.Position
}

// SweepResult lists the order ids the stale sweep dealt with.
type SweepResult struct {
	Canceled []int64
	// Resolved are pending ids the exchange no longer reports as open.
	Resolved []int64
}

// Restored is the exchange-side state used to (re)initialise a bot.
type Restored struct {
	Pending   []int64
	Positions []*models.Position
	Balance   decimal.Decimal
}

// Executor places the orders a trader decides on.
type Executor interface {
	Entry(ctx context.Context, side string, price, size decimal.Decimal) (EntryResult, error)
	Close(ctx context.Context, p *models.Position) (CloseResult, error)
	CloseBulk(ctx context.Context, side string, ps []*models.Position) (CloseResult, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
	Sweep(ctx context.Context, pending []int64, now time.Time) (SweepResult, error)
	Restore(ctx context.Context) (Restored, error)
	Positions(ctx context.Context) ([]*models.Position, error)
	Simulated() bool
}

// OrderManager handles order placement and management against the exchange.
type OrderManager struct {
	Exchange     interfaces.Exchange
	Symbol       string
	Leverage     int
	OrderLimit   time.Duration
	MaxCancelIDs int
	Logger       logging.LoggerInterface
}

var _ Executor = (*OrderManager)(nil)

// NewOrderManager creates a new order manager
func NewOrderManager(ex interfaces.Exchange, symbol string, leverage int, orderLimit time.Duration, logger logging.LoggerInterface) *OrderManager {
	if leverage <= 0 {
		leverage = constants.DefaultLeverage
	}
	if orderLimit <= 0 {
		orderLimit = constants.DefaultOrderLimitS * time.Second
	}
	return &OrderManager{
		Exchange:     ex,
		Symbol:       symbol,
		Leverage:     leverage,
		OrderLimit:   orderLimit,
		MaxCancelIDs: constants.DefaultMaxCancelIDs,
		Logger:       logger,
	}
}

// RequiredMargin is the collateral an entry of size at price locks.
func RequiredMargin(price, size decimal.Decimal, leverage int) decimal.Decimal {
	return price.Mul(size).Div(decimal.NewFromInt(int64(leverage)))
}

// Simulated reports false: orders reach the exchange.
func (om *OrderManager) Simulated() bool { return false }

// Entry places a LIMIT entry at price if the account has the margin for it.
func (om *OrderManager) Entry(ctx context.Context, side string, price, size decimal.Decimal) (EntryResult, error) {
	margin, err := om.Exchange.Margin(ctx)
	if err != nil {
		metrics.RecordOrderError("margin")
		return EntryResult{}, fmt.Errorf("failed to read margin: %w", err)
	}
	need := RequiredMargin(price, size, om.Leverage)
	if margin.Available().LessThan(need) {
		om.Logger.Debug("Entry skipped: available %s < required %s", margin.Available().StringFixed(0), need.StringFixed(0))
		return EntryResult{Skipped: true}, nil
	}

	id, err := om.Exchange.PlaceOrder(ctx, models.OrderRequest{
		Symbol:        om.Symbol,
		Side:          side,
		ExecutionType: constants.Limit,
		Price:         utils.FormatPrice(price.Truncate(0)),
		Size:          utils.FormatSize(size),
	})
	if err != nil {
		metrics.RecordOrderError("order")
		return EntryResult{}, fmt.Errorf("failed to place %s entry: %w", side, err)
	}
	om.Logger.Info("Entry order placed: id=%d side=%s price=%s size=%s", id, side, price.StringFixed(0), size.String())
	return EntryResult{OrderID: id}, nil
}

// Close settles one position with a LIMIT FOK order at its current price.
func (om *OrderManager) Close(ctx context.Context, p *models.Position) (CloseResult, error) {
	id, err := om.Exchange.CloseOrder(ctx, models.CloseOrderRequest{
		Symbol:         om.Symbol,
		Side:           p.CloseSide(),
		ExecutionType:  constants.Limit,
		TimeInForce:    constants.FOK,
		Price:          utils.FormatPrice(p.CurrentPrice),
		SettlePosition: []models.SettlePosition{{PositionID: p.ID, Size: utils.FormatSize(p.Size)}},
	})
	if err != nil {
		metrics.RecordOrderError("closeOrder")
		return CloseResult{}, fmt.Errorf("failed to close position %d: %w", p.ID, err)
	}
	return CloseResult{OrderID: id}, nil
}

// CloseBulk settles every position of side at the first position's current
// price.
func (om *OrderManager) CloseBulk(ctx context.Context, side string, ps []*models.Position) (CloseResult, error) {
	if len(ps) == 0 {
		return CloseResult{}, ErrNoPositions
	}
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.Size)
	}
	id, err := om.Exchange.CloseBulkOrder(ctx, models.CloseBulkOrderRequest{
		Symbol:        om.Symbol,
		Side:          utils.OppositeSide(side),
		ExecutionType: constants.Limit,
		TimeInForce:   constants.FOK,
		Price:         utils.FormatPrice(ps[0].CurrentPrice),
		Size:          utils.FormatSize(total),
	})
	if err != nil {
		metrics.RecordOrderError("closeBulkOrder")
		return CloseResult{}, fmt.Errorf("failed to bulk close %s: %w", side, err)
	}
	return CloseResult{OrderID: id}, nil
}

// Balance is the account valuation including unrealized PnL.
func (om *OrderManager) Balance(ctx context.Context) (decimal.Decimal, error) {
	m, err := om.Exchange.Margin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}
	return m.Balance(), nil
}

// Positions reads the open positions from the exchange.
func (om *OrderManager) Positions(ctx context.Context) ([]*models.Position, error) {
	data, err := om.Exchange.OpenPositions(ctx, om.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to read open positions: %w", err)
	}
	out := make([]*models.Position, 0, len(data))
	for _, d := range data {
		out = append(out, models.NewPosition(d))
	}
	return out, nil
}

// Restore reads the pending entry orders, open positions and balance. Close
// orders left over from a previous run are canceled.
func (om *OrderManager) Restore(ctx context.Context) (Restored, error) {
	var r Restored
	active, err := om.Exchange.ActiveOrders(ctx, om.Symbol)
	if err != nil {
		return r, fmt.Errorf("failed to read active orders: %w", err)
	}
	var closing []int64
	for _, o := range active {
		switch o.SettleType {
		case constants.SettleOpen:
			r.Pending = append(r.Pending, o.OrderID)
		case constants.SettleClose:
			closing = append(closing, o.OrderID)
		}
	}
	if len(closing) > 0 {
		if err := om.cancel(ctx, closing); err != nil {
			om.Logger.Warning("Failed to cancel leftover close orders: %v", err)
		}
	}
	if r.Positions, err = om.Positions(ctx); err != nil {
		return r, err
	}
	if r.Balance, err = om.Balance(ctx); err != nil {
		return r, err
	}
	return r, nil
}

// Sweep cancels close orders and pending entries older than OrderLimit. Only
// the first MaxCancelIDs pending ids are inspected per call.
func (om *OrderManager) Sweep(ctx context.Context, pending []int64, now time.Time) (SweepResult, error) {
	var res SweepResult

	active, err := om.Exchange.ActiveOrders(ctx, om.Symbol)
	if err != nil {
		return res, fmt.Errorf("failed to read active orders: %w", err)
	}
	for _, o := range active {
		if o.SettleType == constants.SettleClose && o.Age(now) > om.OrderLimit {
			res.Canceled = append(res.Canceled, o.OrderID)
		}
	}

	if len(pending) > om.MaxCancelIDs {
		pending = pending[:om.MaxCancelIDs]
	}
	if len(pending) > 0 {
		orders, err := om.Exchange.Orders(ctx, pending)
		if err != nil {
			return res, fmt.Errorf("failed to read pending orders: %w", err)
		}
		seen := make(map[int64]bool, len(orders))
		for _, o := range orders {
			seen[o.OrderID] = true
			switch o.Status {
			case constants.StatusOrdered:
				if o.Age(now) > om.OrderLimit {
					res.Canceled = append(res.Canceled, o.OrderID)
				}
			case constants.StatusWaiting:
			default:
				res.Resolved = append(res.Resolved, o.OrderID)
			}
		}
		for _, id := range pending {
			if !seen[id] {
				res.Resolved = append(res.Resolved, id)
			}
		}
	}

	if len(res.Canceled) > 0 {
		if err := om.cancel(ctx, res.Canceled); err != nil {
			return res, err
		}
		om.Logger.Info("Canceled stale orders: %v", res.Canceled)
	}
	return res, nil
}

func (om *OrderManager) cancel(ctx context.Context, ids []int64) error {
	for start := 0; start < len(ids); start += om.MaxCancelIDs {
		end := min(start+om.MaxCancelIDs, len(ids))
		if err := om.Exchange.CancelOrders(ctx, ids[start:end]); err != nil {
			metrics.RecordOrderError("cancelOrders")
			return fmt.Errorf("failed to cancel orders: %w", err)
		}
	}
	return nil
}
