package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gmocoin-bot/api"
	"gmocoin-bot/config"
	"gmocoin-bot/internal/constants"
	"gmocoin-bot/internal/utils"
	"gmocoin-bot/models"
)

const pageSize = 100

type executionLister interface {
	LatestExecutions(ctx context.Context, symbol string, page, count int) ([]models.Execution, error)
}

// fetchClosed pages through the latest executions, newest first, and keeps
// the closing ones at or after since.
func fetchClosed(ctx context.Context, client executionLister, symbol string, since time.Time, maxPages int) ([]models.Execution, error) {
	var out []models.Execution
	for page := 1; page <= maxPages; page++ {
		list, err := client.LatestExecutions(ctx, symbol, page, pageSize)
		if err != nil {
			return nil, err
		}
		older := false
		for _, e := range list {
			ts, ok := utils.ParseTime(e.Timestamp)
			if ok && ts.Before(since) {
				older = true
				continue
			}
			if e.SettleType == constants.SettleClose {
				out = append(out, e)
			}
		}
		if older || len(list) < pageSize {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

type summary struct {
	Total, Wins, Losses, Fees decimal.Decimal
	Trades, WinNum            int
}

func summarize(list []models.Execution) summary {
	var s summary
	for _, e := range list {
		pnl := utils.ParseDecimal(e.LossGain)
		s.Total = s.Total.Add(pnl)
		s.Fees = s.Fees.Add(utils.ParseDecimal(e.Fee))
		s.Trades++
		if pnl.IsPositive() {
			s.Wins = s.Wins.Add(pnl)
			s.WinNum++
		} else {
			s.Losses = s.Losses.Add(pnl)
		}
	}
	return s
}

func main() {
	hours := flag.Int("hours", 24, "lookback window in hours")
	symbolFlag := flag.String("symbol", "", "instrument symbol (defaults to config Symbol)")
	today := flag.Bool("today", false, "limit to current calendar day (local time); overrides -hours")
	maxPages := flag.Int("pages", 10, "maximum pages of executions to read")
	outCSV := flag.String("out", "report.csv", "path to write CSV report (empty to disable)")
	flag.Parse()

	_ = config.LoadEnvFile("")
	cfg := config.LoadConfig()
	if *symbolFlag != "" {
		cfg.Symbol = *symbolFlag
	}
	client := api.NewRESTClient(cfg, nil)

	now := time.Now()
	since := now.Add(-time.Duration(*hours) * time.Hour)
	windowLabel := fmt.Sprintf("last %dh", *hours)
	if *today {
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		windowLabel = "today"
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	items, err := fetchClosed(ctx, client, cfg.Symbol, since, *maxPages)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error fetching executions: %v\n", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("No closed positions in the selected window.")
		return
	}

	fmt.Printf("Closed PnL %s for %s\n", windowLabel, cfg.Symbol)
	fmt.Printf("%-19s %-5s %-10s %-12s %-10s %-8s\n", "Time", "Side", "Size", "Price", "PnL", "Fee")

	var csvBuilder strings.Builder
	if *outCSV != "" {
		csvBuilder.WriteString("time,side,size,price,pnl,fee,position\n")
	}
	for _, e := range items {
		t := e.Timestamp
		if ts, ok := utils.ParseTime(e.Timestamp); ok {
			t = ts.In(time.Local).Format("2006-01-02 15:04")
		}
		fmt.Printf("%-19s %-5s %-10s %-12s %-10s %-8s\n", t, e.Side, e.Size, e.Price, e.LossGain, e.Fee)
		if *outCSV != "" {
			fmt.Fprintf(&csvBuilder, "%s,%s,%s,%s,%s,%s,%d\n", t, e.Side, e.Size, e.Price, e.LossGain, e.Fee, e.PositionID)
		}
	}

	s := summarize(items)
	winRate := float64(s.WinNum) / float64(s.Trades) * 100
	fmt.Printf("\nTotal PnL: %s (wins %s, losses %s, fees %s) win rate %.2f%% over %d trades\n",
		s.Total.StringFixed(0), s.Wins.StringFixed(0), s.Losses.StringFixed(0), s.Fees.StringFixed(0), winRate, s.Trades)

	if *outCSV != "" {
		if err := os.WriteFile(*outCSV, []byte(csvBuilder.String()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("CSV saved to %s\n", *outCSV)
	}
}
