package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gmocoin-bot/chart"
	"gmocoin-bot/models"
)

func TestStatusURL(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1:6061":     "http://127.0.0.1:6061/status",
		"https://bot.local/": "https://bot.local/status",
		"  http://x:1  ":     "http://x:1/status",
	}
	for in, want := range cases {
		got, err := statusURL(in)
		if err != nil || got != want {
			t.Fatalf("statusURL(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := statusURL(" "); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestRender(t *testing.T) {
	last := chart.Candle{Open: 100, High: 120, Low: 90, Close: 110}
	payload := statusResponse{
		Time:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Symbol:    "BTC_JPY",
		Simulated: true,
		Chart:     &chart.Snapshot{Smoothed: 4, Raw: 4, Momentum: 61.5, Last: &last},
		Channels:  map[string]bool{"ticker": true, "trades": false},
		Bots: []models.BotSnapshot{{
			Name:      "alpha",
			State:     "Running",
			Positions: []models.PositionSnapshot{{ID: 9, Side: "BUY", Size: "0.01"}},
		}},
	}
	var buf bytes.Buffer
	render(&buf, payload)
	out := buf.String()
	for _, want := range []string{"BTC_JPY (paper)", "momentum=61.50", "ticker=true trades=false", "alpha", "position 9 BUY"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	render(&buf, statusResponse{})
	if !strings.Contains(buf.String(), "Bots: none") || !strings.Contains(buf.String(), "Chart: no candles") {
		t.Fatalf("unexpected empty render:\n%s", buf.String())
	}
}
