package interfaces

import (
	"context"

	"gmocoin-bot/models"
)

// Exchange is the REST surface the bot depends on. api.RESTClient is the
// production implementation.
type Exchange interface {
	Status(ctx context.Context) (string, error)
	Ticker(ctx context.Context, symbol string) (models.Ticker, error)
	Margin(ctx context.Context) (models.Margin, error)
	ActiveOrders(ctx context.Context, symbol string) ([]models.Order, error)
	Orders(ctx context.Context, ids []int64) ([]models.Order, error)
	OpenPositions(ctx context.Context, symbol string) ([]models.PositionData, error)
	PlaceOrder(ctx context.Context, req models.OrderRequest) (int64, error)
	CloseOrder(ctx context.Context, req models.CloseOrderRequest) (int64, error)
	CloseBulkOrder(ctx context.Context, req models.CloseBulkOrderRequest) (int64, error)
	CancelOrders(ctx context.Context, ids []int64) error
	TokenSource
}

// TokenSource manages the private websocket access token.
type TokenSource interface {
	WSToken(ctx context.Context) (string, error)
	ExtendWSToken(ctx context.Context, token string) error
	DeleteWSToken(ctx context.Context, token string) error
}

// StatusSource reports whether the exchange is open.
type StatusSource interface {
	Status(ctx context.Context) (string, error)
}
