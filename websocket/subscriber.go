package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gmocoin-bot/logging"
)

// Handler receives every data frame of a subscription. It runs on the
// subscription's read goroutine and must not block for long.
type Handler func(raw []byte)

// Subscription is one live channel.
type Subscription interface {
	Running() bool
	Unsubscribe() error
	Close() error
}

// Subscriber opens channel subscriptions.
type Subscriber interface {
	SubscribePublic(ctx context.Context, channel, symbol string, h Handler) (Subscription, error)
	SubscribePrivate(ctx context.Context, token, channel string, h Handler) (Subscription, error)
}

type command struct {
	Command string `json:"command"`
	Channel string `json:"channel"`
	Symbol  string `json:"symbol,omitempty"`
}

// GorillaSubscriber opens one websocket connection per channel.
type GorillaSubscriber struct {
	PublicURL  string
	PrivateURL string
	PongWait   time.Duration
	PingPeriod time.Duration
	Dialer     *websocket.Dialer
	Logger     logging.LoggerInterface
}

var _ Subscriber = (*GorillaSubscriber)(nil)

// NewGorillaSubscriber builds a subscriber for the given endpoints.
func NewGorillaSubscriber(publicURL, privateURL string, pongWait, pingPeriod time.Duration, logger logging.LoggerInterface) *GorillaSubscriber {
	if pongWait <= 0 {
		pongWait = 70 * time.Second
	}
	if pingPeriod <= 0 || pingPeriod >= pongWait {
		pingPeriod = pongWait * 9 / 10
	}
	return &GorillaSubscriber{
		PublicURL:  publicURL,
		PrivateURL: privateURL,
		PongWait:   pongWait,
		PingPeriod: pingPeriod,
		Dialer:     websocket.DefaultDialer,
		Logger:     logger,
	}
}

// SubscribePublic subscribes to a market channel of symbol.
func (s *GorillaSubscriber) SubscribePublic(ctx context.Context, channel, symbol string, h Handler) (Subscription, error) {
	return s.subscribe(ctx, s.PublicURL, command{Command: "subscribe", Channel: channel, Symbol: symbol}, h)
}

// SubscribePrivate subscribes to an account channel with an access token.
func (s *GorillaSubscriber) SubscribePrivate(ctx context.Context, token, channel string, h Handler) (Subscription, error) {
	if token == "" {
		return nil, errors.New("empty access token")
	}
	url := strings.TrimRight(s.PrivateURL, "/") + "/" + token
	return s.subscribe(ctx, url, command{Command: "subscribe", Channel: channel}, h)
}

func (s *GorillaSubscriber) subscribe(ctx context.Context, url string, sub command, h Handler) (Subscription, error) {
	conn, _, err := s.Dialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", sub.Channel, err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(s.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.PongWait))
	})

	c := &gorillaSub{
		conn:   conn,
		unsub:  command{Command: "unsubscribe", Channel: sub.Channel, Symbol: sub.Symbol},
		done:   make(chan struct{}),
		logger: s.Logger,
	}
	if err := c.writeJSON(sub); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", sub.Channel, err)
	}
	c.running.Store(true)

	go c.readLoop(s.PongWait, h)
	go c.pingLoop(s.PingPeriod)
	return c, nil
}

type gorillaSub struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	unsub   command
	running atomic.Bool
	done    chan struct{}
	once    sync.Once
	logger  logging.LoggerInterface
}

func (c *gorillaSub) Running() bool { return c.running.Load() }

func (c *gorillaSub) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

func (c *gorillaSub) readLoop(pongWait time.Duration, h Handler) {
	defer c.stop()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if c.Running() {
				c.logger.Warning("%s read: %v", c.unsub.Channel, err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if isError(raw) {
			c.logger.Warning("%s error frame: %s", c.unsub.Channel, string(raw))
			continue
		}
		h(raw)
	}
}

func (c *gorillaSub) pingLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("%s ping: %v", c.unsub.Channel, err)
				c.stop()
				return
			}
		}
	}
}

func (c *gorillaSub) stop() {
	c.once.Do(func() {
		c.running.Store(false)
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *gorillaSub) Unsubscribe() error {
	if !c.Running() {
		return nil
	}
	return c.writeJSON(c.unsub)
}

func (c *gorillaSub) Close() error {
	c.stop()
	return nil
}

func isError(raw []byte) bool {
	var peek struct {
		Error string `json:"error"`
	}
	return json.Unmarshal(raw, &peek) == nil && peek.Error != ""
}
