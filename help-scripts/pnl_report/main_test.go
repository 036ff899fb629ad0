package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gmocoin-bot/models"
)

type pagedExecutions struct {
	pages [][]models.Execution
	calls int
}

func (p *pagedExecutions) LatestExecutions(_ context.Context, _ string, page, count int) ([]models.Execution, error) {
	p.calls++
	if count != pageSize {
		return nil, fmt.Errorf("unexpected count %d", count)
	}
	if page > len(p.pages) {
		return nil, nil
	}
	return p.pages[page-1], nil
}

func exec(ts, settle, pnl string) models.Execution {
	return models.Execution{Timestamp: ts, SettleType: settle, LossGain: pnl, Fee: "1"}
}

func fullPage(ts string) []models.Execution {
	out := make([]models.Execution, pageSize)
	for i := range out {
		out[i] = exec(ts, "OPEN", "0")
	}
	return out
}

func TestFetchClosedStopsAtWindow(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := fullPage("2024-05-02T00:00:00Z")
	first[0] = exec("2024-05-02T10:00:00Z", "CLOSE", "300")
	first[1] = exec("2024-05-01T09:00:00Z", "CLOSE", "-100")
	src := &pagedExecutions{pages: [][]models.Execution{
		first,
		{exec("2024-05-01T08:00:00Z", "CLOSE", "50"), exec("2024-04-30T23:00:00Z", "CLOSE", "999")},
		{exec("2024-04-01T00:00:00Z", "CLOSE", "1")},
	}}

	got, err := fetchClosed(context.Background(), src, "BTC_JPY", since, 10)
	if err != nil {
		t.Fatalf("fetchClosed: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected 2 pages read, got %d", src.calls)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 closes, got %d", len(got))
	}
	if got[0].LossGain != "50" || got[2].LossGain != "300" {
		t.Fatalf("expected oldest first, got %#v", got)
	}

	s := summarize(got)
	if s.Total.String() != "250" || s.WinNum != 2 || s.Trades != 3 || s.Losses.String() != "-100" || s.Fees.String() != "3" {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestFetchClosedRespectsPageLimit(t *testing.T) {
	src := &pagedExecutions{pages: [][]models.Execution{fullPage("2024-05-02T00:00:00Z"), fullPage("2024-05-02T00:00:00Z")}}
	if _, err := fetchClosed(context.Background(), src, "BTC_JPY", time.Time{}, 1); err != nil {
		t.Fatalf("fetchClosed: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected 1 page read, got %d", src.calls)
	}
}
