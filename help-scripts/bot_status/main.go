package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"gmocoin-bot/chart"
	"gmocoin-bot/internal/constants"
	"gmocoin-bot/models"
	"gmocoin-bot/report"
)

type statusResponse struct {
	Time      time.Time            `json:"time"`
	Symbol    string               `json:"symbol"`
	Simulated bool                 `json:"simulated"`
	Chart     *chart.Snapshot      `json:"chart"`
	Channels  map[string]bool      `json:"channels"`
	Bots      []models.BotSnapshot `json:"bots"`
}

func statusURL(addr string) (string, error) {
	url := strings.TrimSpace(addr)
	if url == "" {
		return "", fmt.Errorf("status address is empty")
	}
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	return strings.TrimRight(url, "/") + "/status", nil
}

func render(w io.Writer, payload statusResponse) {
	fmt.Fprintf(w, "Time: %s\n", formatTime(payload.Time))
	mode := "live"
	if payload.Simulated {
		mode = "paper"
	}
	fmt.Fprintf(w, "Symbol: %s (%s)\n", payload.Symbol, mode)

	if c := payload.Chart; c == nil || c.Last == nil {
		fmt.Fprintln(w, "Chart: no candles")
	} else {
		fmt.Fprintf(w, "Chart: %s candles=%d raw=%d momentum=%.2f last=%s\n",
			formatTime(c.Bucket), c.Smoothed, c.Raw, c.Momentum, c.Last.String())
	}

	if len(payload.Channels) > 0 {
		var parts []string
		for _, name := range []string{constants.ChannelTicker, constants.ChannelTrades, constants.ChannelExecutions, constants.ChannelOrders, constants.ChannelPositions} {
			if up, ok := payload.Channels[name]; ok {
				parts = append(parts, fmt.Sprintf("%s=%t", name, up))
			}
		}
		fmt.Fprintf(w, "Channels: %s\n", strings.Join(parts, " "))
	}

	if len(payload.Bots) == 0 {
		fmt.Fprintln(w, "Bots: none")
		return
	}
	fmt.Fprintln(w, report.Table(payload.Bots))
	for _, b := range payload.Bots {
		for _, p := range b.Positions {
			fmt.Fprintf(w, "[%s] position %d %s size=%s entry=%s current=%s pnl=%s opened=%s\n",
				b.Name, p.ID, p.Side, p.Size, p.EntryPrice, p.CurrentPrice, p.LossGain, formatTime(p.OpenedAt))
		}
	}
}

func main() {
	defaultAddr := os.Getenv("STATUS_ADDR")
	if defaultAddr == "" {
		defaultAddr = "127.0.0.1:6061"
	}

	addr := flag.String("addr", defaultAddr, "status server address or URL")
	jsonOut := flag.Bool("json", false, "print raw JSON")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP timeout")
	flag.Parse()

	url, err := statusURL(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read response: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "status request error: %s\n%s\n", resp.Status, string(body))
		os.Exit(1)
	}
	if *jsonOut {
		fmt.Println(string(body))
		return
	}

	var payload statusResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse JSON: %v\n", err)
		os.Exit(1)
	}
	render(os.Stdout, payload)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.UTC().Format(time.RFC3339)
}
