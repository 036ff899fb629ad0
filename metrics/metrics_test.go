package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollectorsAreExposed(t *testing.T) {
	RecordTrade("t1", "BUY", true, 120)
	RecordTrade("t1", "BUY", false, 80)
	RecordSubscribe("ticker", nil)
	RecordSubscribe("ticker", errors.New("boom"))
	SetLedger("t1", 2, 1)
	SetMomentum(42)
	RecordSignal("t1", "UP")
	RecordOrderError("order")
	SetState("t1", 2)

	out := scrape(t)
	assert.Contains(t, out, `gmocoin_bot_trades_total{bot="t1",result="win",side="BUY"} 1`)
	assert.Contains(t, out, `gmocoin_bot_realized_pnl{bot="t1"} 80`)
	assert.Contains(t, out, `gmocoin_bot_ws_subscribe_total{channel="ticker",result="error"} 1`)
	assert.Contains(t, out, `gmocoin_bot_open_positions{bot="t1"} 2`)
	assert.Contains(t, out, "gmocoin_bot_momentum_value 42")
	assert.Contains(t, out, `gmocoin_bot_state{bot="t1"} 2`)
}
