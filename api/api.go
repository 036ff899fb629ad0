package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"gmocoin-bot/config"
	"gmocoin-bot/logging"
	"gmocoin-bot/models"
)

// ErrRequestFailed is wrapped by every non-zero status envelope.
var ErrRequestFailed = errors.New("request failed")

// APIError carries the first message of a failed envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return ErrRequestFailed }

type envelope struct {
	Status   int             `json:"status"`
	Data     json.RawMessage `json:"data"`
	Messages []struct {
		Code   string `json:"message_code"`
		String string `json:"message_string"`
	} `json:"messages"`
}

type listData[T any] struct {
	List []T `json:"list"`
}

// RESTClient talks to the GMO Coin public and private REST APIs.
type RESTClient struct {
	Config *config.Config
	Logger logging.LoggerInterface
	HTTP   *http.Client

	getLimiter  *rate.Limiter
	postLimiter *rate.Limiter
	now         func() time.Time
}

// NewRESTClient creates a new REST API client
func NewRESTClient(cfg *config.Config, logger logging.LoggerInterface) *RESTClient {
	if logger == nil {
		logger = logging.Nop()
	}
	limit := cfg.CallLimit
	if limit <= 0 {
		limit = 3
	}
	return &RESTClient{
		Config:      cfg,
		Logger:      logger,
		HTTP:        &http.Client{Timeout: 10 * time.Second},
		getLimiter:  rate.NewLimiter(rate.Limit(limit), limit),
		postLimiter: rate.NewLimiter(rate.Limit(limit), limit),
		now:         time.Now,
	}
}

// SignREST signs a private request: HMAC-SHA256 over timestamp, method, path
// and body.
func (c *RESTClient) SignREST(secret, timestamp, method, path, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + path + body))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *RESTClient) limiter(method string) *rate.Limiter {
	if method == http.MethodGet {
		return c.getLimiter
	}
	return c.postLimiter
}

func (c *RESTClient) public(ctx context.Context, path string, q url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, "/public"+path, path, q, nil, false, out)
}

func (c *RESTClient) private(ctx context.Context, method, path string, q url.Values, body interface{}, out interface{}) error {
	return c.do(ctx, method, "/private"+path, path, q, body, true, out)
}

func (c *RESTClient) do(ctx context.Context, method, fullPath, signPath string, q url.Values, body interface{}, signed bool, out interface{}) error {
	if err := c.limiter(method).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode %s body: %w", signPath, err)
		}
	}

	target := strings.TrimRight(c.Config.RESTHost, "/") + fullPath
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build request %s: %w", signPath, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if signed {
		ts := strconv.FormatInt(c.now().UnixMilli(), 10)
		req.Header.Set("API-KEY", c.Config.APIKey)
		req.Header.Set("API-TIMESTAMP", ts)
		req.Header.Set("API-SIGN", c.SignREST(c.Config.APISecret, ts, method, signPath, string(raw)))
	}

	c.Logger.Debug("Sending %s request to exchange: %s %s", method, signPath, string(raw))
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.Error("Failed to send %s request to exchange: %v", method, err)
		return fmt.Errorf("%s %s: %w", method, signPath, err)
	}
	defer resp.Body.Close()
	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", signPath, err)
	}
	c.Logger.Debug("Received response from exchange for %s: Status %d, Body: %s", signPath, resp.StatusCode, string(reply))

	var env envelope
	if err := json.Unmarshal(reply, &env); err != nil {
		return fmt.Errorf("failed to decode %s response (http %d): %w", signPath, resp.StatusCode, err)
	}
	if env.Status != 0 {
		apiErr := &APIError{Status: env.Status}
		if len(env.Messages) > 0 {
			apiErr.Code = env.Messages[0].Code
			apiErr.Message = env.Messages[0].String
		}
		c.Logger.Error("Error in %s response: %v", signPath, apiErr)
		return fmt.Errorf("%s %s: %w", method, signPath, apiErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", signPath, err)
	}
	return nil
}

// Status returns the exchange status (OPEN, PREOPEN, MAINTENANCE).
func (c *RESTClient) Status(ctx context.Context) (string, error) {
	var data struct {
		Status string `json:"status"`
	}
	if err := c.public(ctx, "/v1/status", nil, &data); err != nil {
		return "", err
	}
	return data.Status, nil
}

// Ticker returns the latest ticker of symbol.
func (c *RESTClient) Ticker(ctx context.Context, symbol string) (models.Ticker, error) {
	var data []models.Ticker
	q := url.Values{"symbol": {symbol}}
	if err := c.public(ctx, "/v1/ticker", q, &data); err != nil {
		return models.Ticker{}, err
	}
	if len(data) == 0 {
		return models.Ticker{}, fmt.Errorf("empty ticker for %s", symbol)
	}
	return data[0], nil
}

// Margin returns the account margin summary.
func (c *RESTClient) Margin(ctx context.Context) (models.Margin, error) {
	var m models.Margin
	err := c.private(ctx, http.MethodGet, "/v1/account/margin", nil, nil, &m)
	return m, err
}

// ActiveOrders returns the open orders of symbol.
func (c *RESTClient) ActiveOrders(ctx context.Context, symbol string) ([]models.Order, error) {
	var data listData[models.Order]
	q := url.Values{"symbol": {symbol}, "page": {"1"}, "count": {"100"}}
	if err := c.private(ctx, http.MethodGet, "/v1/activeOrders", q, nil, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// Orders looks up orders by id.
func (c *RESTClient) Orders(ctx context.Context, ids []int64) ([]models.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var data listData[models.Order]
	q := url.Values{"orderId": {joinIDs(ids)}}
	if err := c.private(ctx, http.MethodGet, "/v1/orders", q, nil, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// OpenPositions returns the open positions of symbol.
func (c *RESTClient) OpenPositions(ctx context.Context, symbol string) ([]models.PositionData, error) {
	var data listData[models.PositionData]
	q := url.Values{"symbol": {symbol}, "page": {"1"}, "count": {"100"}}
	if err := c.private(ctx, http.MethodGet, "/v1/openPositions", q, nil, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// LatestExecutions returns one page of recent executions of symbol, newest
// first. count is capped at 100 by the exchange.
func (c *RESTClient) LatestExecutions(ctx context.Context, symbol string, page, count int) ([]models.Execution, error) {
	var data listData[models.Execution]
	q := url.Values{"symbol": {symbol}, "page": {strconv.Itoa(page)}, "count": {strconv.Itoa(count)}}
	if err := c.private(ctx, http.MethodGet, "/v1/latestExecutions", q, nil, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// PlaceOrder submits a new order and returns its id.
func (c *RESTClient) PlaceOrder(ctx context.Context, req models.OrderRequest) (int64, error) {
	return c.postOrder(ctx, "/v1/order", req)
}

// CloseOrder settles one position and returns the order id.
func (c *RESTClient) CloseOrder(ctx context.Context, req models.CloseOrderRequest) (int64, error) {
	return c.postOrder(ctx, "/v1/closeOrder", req)
}

// CloseBulkOrder settles positions of one side by size and returns the order id.
func (c *RESTClient) CloseBulkOrder(ctx context.Context, req models.CloseBulkOrderRequest) (int64, error) {
	return c.postOrder(ctx, "/v1/closeBulkOrder", req)
}

func (c *RESTClient) postOrder(ctx context.Context, path string, body interface{}) (int64, error) {
	var id string
	if err := c.private(ctx, http.MethodPost, path, nil, body, &id); err != nil {
		return 0, err
	}
	c.Logger.Info("Order accepted by exchange: %s id=%s", path, id)
	parsed, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected order id %q: %w", id, err)
	}
	return parsed, nil
}

// CancelOrders cancels up to ten orders at once.
func (c *RESTClient) CancelOrders(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return c.private(ctx, http.MethodPost, "/v1/cancelOrders", nil, map[string][]int64{"orderIds": ids}, nil)
}

// WSToken issues a private websocket access token.
func (c *RESTClient) WSToken(ctx context.Context) (string, error) {
	var token string
	if err := c.private(ctx, http.MethodPost, "/v1/ws-auth", nil, map[string]string{}, &token); err != nil {
		return "", err
	}
	return token, nil
}

// ExtendWSToken extends the lifetime of token.
func (c *RESTClient) ExtendWSToken(ctx context.Context, token string) error {
	return c.private(ctx, http.MethodPut, "/v1/ws-auth", nil, map[string]string{"token": token}, nil)
}

// DeleteWSToken revokes token.
func (c *RESTClient) DeleteWSToken(ctx context.Context, token string) error {
	return c.private(ctx, http.MethodDelete, "/v1/ws-auth", nil, map[string]string{"token": token}, nil)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
