package models

import (
	"time"

	"github.com/shopspring/decimal"

	"gmocoin-bot/internal/utils"
)

// Ticker is a ticker channel message and the /v1/ticker row.
type Ticker struct {
	Ask       string `json:"ask"`
	Bid       string `json:"bid"`
	High      string `json:"high"`
	Last      string `json:"last"`
	Low       string `json:"low"`
	Symbol    string `json:"symbol"`
	Timestamp string `json:"timestamp"`
	Volume    string `json:"volume"`
}

// AskPrice returns the best ask as a decimal.
func (t Ticker) AskPrice() decimal.Decimal { return utils.ParseDecimal(t.Ask) }

// BidPrice returns the best bid as a decimal.
func (t Ticker) BidPrice() decimal.Decimal { return utils.ParseDecimal(t.Bid) }

// LastPrice returns the last traded price truncated to whole yen.
func (t Ticker) LastPrice() decimal.Decimal { return utils.ParseDecimal(t.Last).Truncate(0) }

// Trade is a trades channel message.
type Trade struct {
	Channel   string `json:"channel,omitempty"`
	Price     string `json:"price"`
	Side      string `json:"side"`
	Size      string `json:"size"`
	Symbol    string `json:"symbol"`
	Timestamp string `json:"timestamp"`
}

// OrderEvent is an orderEvents channel message.
type OrderEvent struct {
	Channel           string `json:"channel"`
	MsgType           string `json:"msgType"`
	OrderID           int64  `json:"orderId"`
	Symbol            string `json:"symbol"`
	SettleType        string `json:"settleType"`
	ExecutionType     string `json:"executionType"`
	Side              string `json:"side"`
	OrderStatus       string `json:"orderStatus"`
	CancelType        string `json:"cancelType,omitempty"`
	OrderTimestamp    string `json:"orderTimestamp"`
	OrderPrice        string `json:"orderPrice"`
	OrderSize         string `json:"orderSize"`
	OrderExecutedSize string `json:"orderExecutedSize"`
	LosscutPrice      string `json:"losscutPrice"`
	TimeInForce       string `json:"timeInForce"`
}

// PositionData is the shape shared by positionEvents messages and the
// openPositions endpoint.
type PositionData struct {
	Channel      string `json:"channel,omitempty"`
	MsgType      string `json:"msgType,omitempty"`
	PositionID   int64  `json:"positionId"`
	Symbol       string `json:"symbol"`
	Side         string `json:"side"`
	Size         string `json:"size"`
	OrderdSize   string `json:"orderdSize"`
	Price        string `json:"price"`
	LossGain     string `json:"lossGain"`
	Leverage     string `json:"leverage"`
	LosscutPrice string `json:"losscutPrice"`
	Timestamp    string `json:"timestamp"`
}

// ExecutionEvent is an executionEvents channel message.
type ExecutionEvent struct {
	Channel            string `json:"channel"`
	MsgType            string `json:"msgType"`
	OrderID            int64  `json:"orderId"`
	ExecutionID        int64  `json:"executionId"`
	PositionID         int64  `json:"positionId"`
	Symbol             string `json:"symbol"`
	SettleType         string `json:"settleType"`
	ExecutionType      string `json:"executionType"`
	Side               string `json:"side"`
	ExecutionPrice     string `json:"executionPrice"`
	ExecutionSize      string `json:"executionSize"`
	OrderTimestamp     string `json:"orderTimestamp"`
	ExecutionTimestamp string `json:"executionTimestamp"`
	LossGain           string `json:"lossGain"`
	Fee                string `json:"fee"`
}

// Order is a row of the activeOrders and orders endpoints.
type Order struct {
	RootOrderID   int64  `json:"rootOrderId"`
	OrderID       int64  `json:"orderId"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	OrderType     string `json:"orderType"`
	ExecutionType string `json:"executionType"`
	SettleType    string `json:"settleType"`
	Size          string `json:"size"`
	ExecutedSize  string `json:"executedSize"`
	Price         string `json:"price"`
	LosscutPrice  string `json:"losscutPrice"`
	Status        string `json:"status"`
	TimeInForce   string `json:"timeInForce"`
	Timestamp     string `json:"timestamp"`
}

// Age returns how long ago the order was placed, or 0 when the timestamp is
// unreadable.
func (o Order) Age(now time.Time) time.Duration {
	ts, ok := utils.ParseTime(o.Timestamp)
	if !ok {
		return 0
	}
	return now.Sub(ts)
}

// Margin is the account/margin payload.
type Margin struct {
	ActualProfitLoss string `json:"actualProfitLoss"`
	AvailableAmount  string `json:"availableAmount"`
	Margin           string `json:"margin"`
	MarginRatio      string `json:"marginRatio"`
	ProfitLoss       string `json:"profitLoss"`
}

// Available returns the amount usable for new margin.
func (m Margin) Available() decimal.Decimal { return utils.ParseDecimal(m.AvailableAmount) }

// Balance returns the valuation including unrealized PnL.
func (m Margin) Balance() decimal.Decimal { return utils.ParseDecimal(m.ActualProfitLoss) }

// OrderRequest is the body of POST /v1/order.
type OrderRequest struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	ExecutionType string `json:"executionType"`
	TimeInForce   string `json:"timeInForce,omitempty"`
	Price         string `json:"price,omitempty"`
	LosscutPrice  string `json:"losscutPrice,omitempty"`
	Size          string `json:"size"`
	CancelBefore  bool   `json:"cancelBefore,omitempty"`
}

// SettlePosition selects a position and size in a close order.
type SettlePosition struct {
	PositionID int64  `json:"positionId"`
	Size       string `json:"size"`
}

// CloseOrderRequest is the body of POST /v1/closeOrder.
type CloseOrderRequest struct {
	Symbol         string           `json:"symbol"`
	Side           string           `json:"side"`
	ExecutionType  string           `json:"executionType"`
	TimeInForce    string           `json:"timeInForce,omitempty"`
	Price          string           `json:"price,omitempty"`
	SettlePosition []SettlePosition `json:"settlePosition"`
}

// CloseBulkOrderRequest is the body of POST /v1/closeBulkOrder.
type CloseBulkOrderRequest struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	ExecutionType string `json:"executionType"`
	TimeInForce   string `json:"timeInForce,omitempty"`
	Price         string `json:"price,omitempty"`
	Size          string `json:"size"`
}

// Execution is a row of the latestExecutions endpoint.
type Execution struct {
	ExecutionID int64  `json:"executionId"`
	OrderID     int64  `json:"orderId"`
	PositionID  int64  `json:"positionId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	SettleType  string `json:"settleType"`
	Size        string `json:"size"`
	Price       string `json:"price"`
	LossGain    string `json:"lossGain"`
	Fee         string `json:"fee"`
	Timestamp   string `json:"timestamp"`
}
