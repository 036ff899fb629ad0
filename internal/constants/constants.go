package constants

// Order and position sides
const (
	Buy  = "BUY"
	Sell = "SELL"
)

// Execution types
const (
	Limit  = "LIMIT"
	Market = "MARKET"
	Stop   = "STOP"
)

// Time in force
const (
	FAK = "FAK"
	FAS = "FAS"
	FOK = "FOK"
	SOK = "SOK"
)

// Settle types carried by order and execution events
const (
	SettleOpen  = "OPEN"
	SettleClose = "CLOSE"
)

// Order event message types
const (
	MsgNewOrder     = "NOR"
	MsgReplaceOrder = "ROR"
	MsgCancelOrder  = "COR"
	MsgExpireOrder  = "ER"
)

// Position event message types
const (
	MsgOpenPosition    = "OPR"
	MsgUpdatePosition  = "UPR"
	MsgClosePosition   = "CPR"
	MsgLosscutPosition = "ULR"
)

// Order status as reported by the orders endpoint
const (
	StatusOrdered = "ORDERED"
	StatusWaiting = "WAITING"
)

// Exchange status
const (
	ExchangeOpen        = "OPEN"
	ExchangePreOpen     = "PREOPEN"
	ExchangeMaintenance = "MAINTENANCE"
)

// Websocket channel names
const (
	ChannelTicker     = "ticker"
	ChannelTrades     = "trades"
	ChannelExecutions = "executionEvents"
	ChannelOrders     = "orderEvents"
	ChannelPositions  = "positionEvents"
)

// Defaults
const (
	DefaultSymbol       = "BTC_JPY"
	DefaultRSIPeriod    = 14
	DefaultChartLength  = 3600
	DefaultLeverage     = 4
	DefaultCheckLength  = 3
	DefaultCoolTime     = 5
	DefaultOrderLimitS  = 60
	DefaultMaxCancelIDs = 10
)
