package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"gmocoin-bot/logging"
	"gmocoin-bot/models"
)

// Reporter writes trade reports and periodic stats tables to the log.
type Reporter struct {
	Logger logging.LoggerInterface
}

// New returns a reporter logging through logger.
func New(logger logging.LoggerInterface) *Reporter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Reporter{Logger: logger}
}

// CloseLine formats the line logged when a position is settled.
func CloseLine(bot string, p *models.Position, stats models.Stats, balance decimal.Decimal, now time.Time) string {
	return fmt.Sprintf("[%s] CLOSED %s WIN RATE[%.2f%%] BALANCE: %s PROFIT[%s %.2f%%]",
		bot, p.ExecuteReport(now), stats.WinRate()*100, balance.StringFixed(0),
		signed(stats.ProfitSum), stats.ProfitRate()*100)
}

// Close logs a settled position.
func (r *Reporter) Close(bot string, p *models.Position, stats models.Stats, balance decimal.Decimal, now time.Time) {
	r.Logger.Info("%s", CloseLine(bot, p, stats, balance, now))
}

// Entry logs an opened position.
func (r *Reporter) Entry(bot string, p *models.Position) {
	r.Logger.Info("[%s] %s", bot, p.EntryReport())
}

// Table renders one row per bot.
func Table(snaps []models.BotSnapshot) string {
	t := table.NewWriter()
	t.SetTitle("BOT STATS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Bot", "State", "Mode", "Positions", "Pending", "Trades", "Win rate", "Profit", "Profit rate", "Signal"})
	for _, s := range snaps {
		mode := "live"
		if s.Simulated {
			mode = "paper"
		}
		t.AppendRow(table.Row{
			s.Name,
			s.State,
			mode,
			len(s.Positions),
			s.Pending,
			s.Stats.TradeNum,
			fmt.Sprintf("%.2f%%", s.WinRate*100),
			signed(s.Stats.ProfitSum),
			fmt.Sprintf("%.2f%%", s.ProfitRate*100),
			s.LastSignal,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 12, Align: text.AlignLeft},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})
	return t.Render()
}

// Stats logs the stats table line by line.
func (r *Reporter) Stats(snaps []models.BotSnapshot) {
	if len(snaps) == 0 {
		return
	}
	for _, line := range strings.Split(Table(snaps), "\n") {
		r.Logger.Info("%s", line)
	}
}

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(0)
	}
	return "+" + d.StringFixed(0)
}
