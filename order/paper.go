package order

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gmocoin-bot/internal/constants"
	"gmocoin-bot/logging"
	"gmocoin-bot/models"
)

// PaperBroker fills every order immediately against a virtual cash balance.
type PaperBroker struct {
	Symbol   string
	Leverage int
	Logger   logging.LoggerInterface

	mu   sync.Mutex
	cash decimal.Decimal
	open map[int64]*models.Position
	rng  *rand.Rand
	now  func() time.Time
}

var _ Executor = (*PaperBroker)(nil)

// NewPaperBroker starts with balance in cash.
func NewPaperBroker(symbol string, balance decimal.Decimal, leverage int, logger logging.LoggerInterface) *PaperBroker {
	if leverage <= 0 {
		leverage = constants.DefaultLeverage
	}
	return &PaperBroker{
		Symbol:   symbol,
		Leverage: leverage,
		Logger:   logger,
		cash:     balance,
		open:     make(map[int64]*models.Position),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Simulated reports true.
func (pb *PaperBroker) Simulated() bool { return true }

// Cash is the balance not locked as margin.
func (pb *PaperBroker) Cash() decimal.Decimal {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.cash
}

func (pb *PaperBroker) nextID() int64 {
	for {
		id := int64(100000 + pb.rng.Intn(900000))
		if _, taken := pb.open[id]; !taken {
			return id
		}
	}
}

// Entry opens a synthetic position at price if the cash covers its margin.
func (pb *PaperBroker) Entry(_ context.Context, side string, price, size decimal.Decimal) (EntryResult, error) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	price = price.Truncate(0)
	need := RequiredMargin(price, size, pb.Leverage)
	if pb.cash.LessThan(need) {
		pb.Logger.Debug("Paper entry skipped: cash %s < required %s", pb.cash.StringFixed(0), need.StringFixed(0))
		return EntryResult{Skipped: true}, nil
	}
	p := &models.Position{
		ID:           pb.nextID(),
		Symbol:       pb.Symbol,
		Side:         side,
		Size:         size,
		EntryPrice:   price,
		CurrentPrice: price,
		Leverage:     pb.Leverage,
		Timestamp:    pb.now(),
	}
	pb.open[p.ID] = p
	pb.cash = pb.cash.Sub(need)
	pb.Logger.Info("%s", p.EntryReport())
	return EntryResult{OrderID: p.ID, Position: p}, nil
}

// Close settles p at its current mark.
func (pb *PaperBroker) Close(_ context.Context, p *models.Position) (CloseResult, error) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if !pb.settle(p) {
		return CloseResult{}, nil
	}
	return CloseResult{Settled: []*models.Position{p}}, nil
}

// CloseBulk settles every position in ps.
func (pb *PaperBroker) CloseBulk(_ context.Context, _ string, ps []*models.Position) (CloseResult, error) {
	if len(ps) == 0 {
		return CloseResult{}, ErrNoPositions
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	var res CloseResult
	for _, p := range ps {
		if pb.settle(p) {
			res.Settled = append(res.Settled, p)
		}
	}
	return res, nil
}

func (pb *PaperBroker) settle(p *models.Position) bool {
	if _, ok := pb.open[p.ID]; !ok {
		return false
	}
	delete(pb.open, p.ID)
	pb.cash = pb.cash.Add(p.Margin()).Add(p.LossGain)
	return true
}

// Balance is cash plus margin and unrealized PnL of every open position.
func (pb *PaperBroker) Balance(context.Context) (decimal.Decimal, error) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	total := pb.cash
	for _, p := range pb.open {
		total = total.Add(p.Margin()).Add(p.LossGain)
	}
	return total, nil
}

// Positions returns the open synthetic positions.
func (pb *PaperBroker) Positions(context.Context) ([]*models.Position, error) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	out := make([]*models.Position, 0, len(pb.open))
	for _, p := range pb.open {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Sweep has nothing to do: paper orders never rest.
func (pb *PaperBroker) Sweep(context.Context, []int64, time.Time) (SweepResult, error) {
	return SweepResult{}, nil
}

// Restore returns the current balance; open positions survive in memory.
func (pb *PaperBroker) Restore(ctx context.Context) (Restored, error) {
	bal, _ := pb.Balance(ctx)
	ps, _ := pb.Positions(ctx)
	return Restored{Balance: bal, Positions: ps}, nil
}
