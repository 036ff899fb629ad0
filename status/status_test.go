package status

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmocoin-bot/chart"
	"gmocoin-bot/logging"
	"gmocoin-bot/models"
)

func TestStatusEndpoint(t *testing.T) {
	src := Source{
		Symbol:    "BTC_JPY",
		Simulated: true,
		Bots: func() []models.BotSnapshot {
			return []models.BotSnapshot{{Name: "alpha", State: "Running", LastSignal: "UP"}}
		},
		Chart:    func() chart.Snapshot { return chart.Snapshot{Smoothed: 3, Raw: 3, Momentum: -1} },
		Channels: func() map[string]bool { return map[string]bool{"ticker": true} },
	}
	srv := httptest.NewServer(Handler(src))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var body statusResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "BTC_JPY", body.Symbol)
	assert.True(t, body.Simulated)
	require.Len(t, body.Bots, 1)
	assert.Equal(t, "alpha", body.Bots[0].Name)
	require.NotNil(t, body.Chart)
	assert.Equal(t, 3, body.Chart.Smoothed)
	assert.True(t, body.Channels["ticker"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httptest.NewServer(Handler(Source{}))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(data), "go_goroutines")
}

func TestStartServerDisabled(t *testing.T) {
	for _, addr := range []string{"", "off", "Disabled"} {
		assert.Nil(t, StartServer(addr, Source{}, logging.Nop()))
	}
}
