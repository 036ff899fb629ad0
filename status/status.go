package status

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"gmocoin-bot/chart"
	"gmocoin-bot/logging"
	"gmocoin-bot/metrics"
	"gmocoin-bot/models"
)

// Source supplies the state reported by /status.
type Source struct {
	Symbol    string
	Simulated bool
	Bots      func() []models.BotSnapshot
	Chart     func() chart.Snapshot
	Channels  func() map[string]bool
	Stream    *Hub
}

type statusResponse struct {
	Time      time.Time            `json:"time"`
	Symbol    string               `json:"symbol"`
	Simulated bool                 `json:"simulated"`
	Chart     *chart.Snapshot      `json:"chart,omitempty"`
	Channels  map[string]bool      `json:"channels,omitempty"`
	Bots      []models.BotSnapshot `json:"bots"`
}

func (src Source) build(now time.Time) statusResponse {
	resp := statusResponse{
		Time:      now,
		Symbol:    src.Symbol,
		Simulated: src.Simulated,
		Bots:      []models.BotSnapshot{},
	}
	if src.Chart != nil {
		cs := src.Chart()
		resp.Chart = &cs
	}
	if src.Channels != nil {
		resp.Channels = src.Channels()
	}
	if src.Bots != nil {
		resp.Bots = src.Bots()
	}
	return resp
}

// Handler serves /status as JSON and /metrics for Prometheus. When src has a
// Stream hub it is mounted on /ws.
func Handler(src Source) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(src.build(time.Now())); err != nil {
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
			return
		}
	})
	if src.Stream != nil {
		mux.Handle("/ws", src.Stream)
	}
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// StartServer starts a local HTTP status server for diagnostics.
func StartServer(addr string, src Source, logger logging.LoggerInterface) *http.Server {
	addr = strings.TrimSpace(addr)
	if addr == "" || strings.EqualFold(addr, "off") || strings.EqualFold(addr, "disabled") {
		logger.Info("Status server disabled")
		return nil
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           Handler(src),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Status server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server error: %v", err)
		}
	}()

	return server
}
