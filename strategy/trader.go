// Package strategy runs one trading bot per BotConfig: it reads the shared
// chart, decides entries and exits, and reconciles exchange events against
// the bot's own ledger.
package strategy

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"gmocoin-bot/chart"
	"gmocoin-bot/config"
	"gmocoin-bot/interfaces"
	"gmocoin-bot/internal/constants"
	"gmocoin-bot/logging"
	"gmocoin-bot/metrics"
	"gmocoin-bot/models"
	"gmocoin-bot/order"
	"gmocoin-bot/position"
	"gmocoin-bot/report"
	"gmocoin-bot/trend"
)

// Market is the chart view a trader reads.
type Market interface {
	trend.Source
	LastCandle() (chart.Candle, bool)
}

// recentIDs bounds each set of finished ids a trader remembers.
const recentIDs = 1024

// Trader owns one bot's ledger. Every mutation runs on the goroutine started
// by Run; other goroutines hand work over with Submit.
type Trader struct {
	Name   string
	Config config.BotConfig

	market   Market
	checker  trend.Checker
	exec     order.Executor
	status   interfaces.StatusSource
	reporter *report.Reporter
	logger   logging.LoggerInterface
	now      func() time.Time

	ledger  *position.Ledger
	pending *position.PendingOrders
	closing map[int64]time.Time
	// finished ids, so replayed or reordered events cannot bring them back
	closedPositions *position.Recent[struct{}]
	earlyCloses     *position.Recent[models.ExecutionEvent]
	doneOrders      *position.Recent[struct{}]
	stats           models.Stats
	state           models.BotState
	prevEntry       time.Time
	lastSignal      trend.Signal
	restored        bool

	inbox    chan func(context.Context)
	done     chan struct{}
	stopped  atomic.Bool
	snapshot atomic.Pointer[models.BotSnapshot]
}

// NewTrader builds a trader for cfg. The trend checker is created from
// cfg.TrendChecker.
func NewTrader(cfg config.BotConfig, market Market, exec order.Executor, status interfaces.StatusSource, rep *report.Reporter, logger logging.LoggerInterface) (*Trader, error) {
	checker, err := trend.New(cfg.TrendChecker)
	if err != nil {
		return nil, fmt.Errorf("bot %s: %w", cfg.Name, err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if rep == nil {
		rep = report.New(logger)
	}
	if cfg.ExitRules == nil {
		cfg.ExitRules = &config.ExitRules{Profit: true}
	}
	t := &Trader{
		Name:            cfg.Name,
		Config:          cfg,
		market:          market,
		checker:         checker,
		exec:            exec,
		status:          status,
		reporter:        rep,
		logger:          logger,
		now:             time.Now,
		ledger:          position.NewLedger(),
		pending:         position.NewPendingOrders(),
		closing:         make(map[int64]time.Time),
		closedPositions: position.NewRecent[struct{}](recentIDs),
		earlyCloses:     position.NewRecent[models.ExecutionEvent](recentIDs),
		doneOrders:      position.NewRecent[struct{}](recentIDs),
		state:           models.StateInitializing,
		inbox:           make(chan func(context.Context), 256),
		done:            make(chan struct{}),
	}
	t.publish()
	return t, nil
}

// Submit queues fn for the trader goroutine. It blocks while the inbox is
// full and returns false once the trader has stopped.
func (t *Trader) Submit(fn func(ctx context.Context)) bool {
	if t.stopped.Load() {
		t.logger.Debug("[%s] dropped work: trader stopped", t.Name)
		return false
	}
	select {
	case t.inbox <- fn:
		return true
	case <-t.done:
		return false
	}
}

// Run executes submitted work until ctx is done.
func (t *Trader) Run(ctx context.Context) {
	defer func() {
		t.stopped.Store(true)
		close(t.done)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-t.inbox:
			fn(ctx)
			t.publish()
		}
	}
}

// Snapshot returns the state published after the last processed task.
func (t *Trader) Snapshot() models.BotSnapshot {
	if s := t.snapshot.Load(); s != nil {
		return *s
	}
	return models.BotSnapshot{Name: t.Name}
}

func (t *Trader) publish() {
	s := t.buildSnapshot()
	t.snapshot.Store(&s)
	metrics.SetLedger(t.Name, t.ledger.Len(), t.pending.Len())
	metrics.SetState(t.Name, int(t.state))
}

func (t *Trader) buildSnapshot() models.BotSnapshot {
	s := models.BotSnapshot{
		Name:       t.Name,
		Symbol:     t.Config.Symbol,
		State:      t.state.String(),
		Simulated:  t.exec.Simulated(),
		Pending:    t.pending.Len(),
		Positions:  t.ledger.Snapshots(),
		Stats:      t.stats,
		WinRate:    t.stats.WinRate(),
		ProfitRate: t.stats.ProfitRate(),
		LastSignal: t.lastSignal.String(),
		UpdatedAt:  t.now(),
	}
	if !t.prevEntry.IsZero() {
		pe := t.prevEntry
		s.PrevEntry = &pe
	}
	return s
}

// State returns the lifecycle state. Call from the trader goroutine.
func (t *Trader) State() models.BotState { return t.state }

func (t *Trader) setState(next models.BotState) {
	if t.state == next {
		return
	}
	if !t.state.CanTransition(next) {
		t.logger.Warning("[%s] invalid state change %s -> %s", t.Name, t.state, next)
		return
	}
	t.logger.Info("[%s] state %s -> %s", t.Name, t.state, next)
	t.state = next
}

// Init loads pending orders, positions and balance from the executor. The
// first successful call fixes the initial balance used for profit rate.
func (t *Trader) Init(ctx context.Context) error {
	r, err := t.exec.Restore(ctx)
	if err != nil {
		return fmt.Errorf("bot %s restore: %w", t.Name, err)
	}
	now := t.now()
	t.pending.Replace(r.Pending, now)
	t.ledger.Replace(r.Positions)
	t.closing = make(map[int64]time.Time)
	if !t.restored {
		t.stats.InitBalance = r.Balance
		t.restored = true
	}
	if t.state == models.StateInitializing {
		t.setState(models.StateInitialized)
	}
	t.logger.Info("[%s] initialized: positions=%d pending=%d balance=%s",
		t.Name, t.ledger.Len(), t.pending.Len(), r.Balance.StringFixed(0))
	return nil
}

// CheckServerStatus pauses the bot while the exchange is not open and
// resumes it, reloading orders and positions, when it opens again.
func (t *Trader) CheckServerStatus(ctx context.Context) {
	open := true
	if t.status != nil {
		st, err := t.status.Status(ctx)
		if err != nil {
			t.logger.Warning("[%s] status check failed: %v", t.Name, err)
			open = false
		} else {
			open = st == constants.ExchangeOpen
		}
	}

	switch t.state {
	case models.StateRunning:
		if !open {
			t.setState(models.StatePaused)
		}
	case models.StateInitializing:
		if err := t.Init(ctx); err != nil {
			t.logger.Error("%v", err)
			return
		}
		fallthrough
	case models.StateInitialized, models.StatePaused:
		if !open {
			if t.state == models.StateInitialized {
				t.setState(models.StatePaused)
			}
			return
		}
		if t.state == models.StatePaused {
			if err := t.Init(ctx); err != nil {
				t.logger.Error("%v", err)
				return
			}
		}
		t.setState(models.StateRunning)
	}
}

// RefreshPositions replaces the ledger with the executor's open positions.
func (t *Trader) RefreshPositions(ctx context.Context) {
	if t.state != models.StateRunning {
		return
	}
	ps, err := t.exec.Positions(ctx)
	if err != nil {
		t.logger.Warning("[%s] refresh positions: %v", t.Name, err)
		return
	}
	t.ledger.Replace(ps)
	t.logger.Debug("[%s] positions refreshed: %d", t.Name, len(ps))
}

// Sweep cancels stale pending entries and close orders.
func (t *Trader) Sweep(ctx context.Context) {
	if t.state != models.StateRunning {
		return
	}
	res, err := t.exec.Sweep(ctx, t.pending.IDs(), t.now())
	for _, id := range res.Resolved {
		t.pending.Remove(id)
		t.doneOrders.Put(id, struct{}{})
	}
	for _, id := range res.Canceled {
		t.pending.Remove(id)
		delete(t.closing, id)
		t.doneOrders.Put(id, struct{}{})
	}
	if err != nil {
		t.logger.Error("[%s] sweep: %v", t.Name, err)
	}
}

func (t *Trader) balance(ctx context.Context) decimal.Decimal {
	b, err := t.exec.Balance(ctx)
	if err != nil {
		t.logger.Debug("[%s] balance: %v", t.Name, err)
	}
	return b
}
