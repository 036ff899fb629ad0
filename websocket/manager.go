package websocket

import (
	"context"
	"sync"
	"time"

	"gmocoin-bot/interfaces"
	"gmocoin-bot/internal/constants"
	"gmocoin-bot/logging"
	"gmocoin-bot/metrics"
)

// Sleeper waits between subscribe calls.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// RealSleeper blocks on a timer or until ctx is done.
var RealSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// Channel is a logical subscription the manager keeps alive.
type Channel struct {
	Name    string
	Private bool
	Handler Handler
}

// ChannelManager keeps one live subscription per channel, resubscribing dead
// ones on every Connect. Subscribe calls are serialized and spaced by
// Interval because the exchange accepts one per second.
type ChannelManager struct {
	Subscriber Subscriber
	Tokens     interfaces.TokenSource
	Status     interfaces.StatusSource
	Symbol     string
	Interval   time.Duration
	Sleeper    Sleeper
	Logger     logging.LoggerInterface
	// OnConnected runs after every Connect that found the exchange open.
	OnConnected func()

	// connectMu serializes Connect and Close; mu guards handles and token
	// and is never held across a dial or a sleep.
	connectMu sync.Mutex
	mu        sync.Mutex
	channels  []Channel
	handles   map[string]Subscription
	token     string
}

// NewChannelManager builds a manager for the given channels, kept in order.
func NewChannelManager(sub Subscriber, tokens interfaces.TokenSource, status interfaces.StatusSource, symbol string, interval time.Duration, logger logging.LoggerInterface, channels ...Channel) *ChannelManager {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &ChannelManager{
		Subscriber: sub,
		Tokens:     tokens,
		Status:     status,
		Symbol:     symbol,
		Interval:   interval,
		Sleeper:    RealSleeper,
		Logger:     logger,
		channels:   channels,
		handles:    make(map[string]Subscription, len(channels)),
	}
}

func (m *ChannelManager) open(ctx context.Context) bool {
	if m.Status == nil {
		return true
	}
	st, err := m.Status.Status(ctx)
	if err != nil {
		m.Logger.Warning("Exchange status unavailable: %v", err)
		return false
	}
	if st != constants.ExchangeOpen {
		m.Logger.Debug("Exchange status %s, skipping", st)
		return false
	}
	return true
}

// Connect subscribes every channel that has no handle or whose handle has
// stopped. Failures leave the handle empty for the next call.
func (m *ChannelManager) Connect(ctx context.Context) {
	if !m.open(ctx) {
		return
	}

	m.connectMu.Lock()
	for _, ch := range m.channels {
		if h := m.handle(ch.Name); h != nil && h.Running() {
			continue
		}
		if err := m.subscribe(ctx, ch); err != nil {
			break
		}
	}
	m.connectMu.Unlock()

	if ctx.Err() == nil && m.OnConnected != nil {
		m.OnConnected()
	}
}

func (m *ChannelManager) handle(name string) Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handles[name]
}

func (m *ChannelManager) setHandle(name string, sub Subscription) {
	m.mu.Lock()
	m.handles[name] = sub
	m.mu.Unlock()
}

// accessToken returns the cached token or fetches a new one.
func (m *ChannelManager) accessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	tok := m.token
	m.mu.Unlock()
	if tok != "" {
		return tok, nil
	}
	tok, err := m.Tokens.WSToken(ctx)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()
	return tok, nil
}

// dropToken forgets tok so the next private subscribe issues a new one.
func (m *ChannelManager) dropToken(tok string) {
	m.mu.Lock()
	if m.token == tok {
		m.token = ""
	}
	m.mu.Unlock()
}

// subscribe returns an error only when ctx ended while waiting.
func (m *ChannelManager) subscribe(ctx context.Context, ch Channel) error {
	if old := m.handle(ch.Name); old != nil {
		_ = old.Close()
		m.setHandle(ch.Name, nil)
	}

	var (
		sub Subscription
		err error
	)
	if ch.Private {
		tok, terr := m.accessToken(ctx)
		if terr != nil {
			m.Logger.Warning("Failed to get access token: %v", terr)
			return nil
		}
		sub, err = m.Subscriber.SubscribePrivate(ctx, tok, ch.Name, ch.Handler)
		if err != nil {
			// an expired or revoked token fails the handshake
			m.dropToken(tok)
		}
	} else {
		sub, err = m.Subscriber.SubscribePublic(ctx, ch.Name, m.Symbol, ch.Handler)
	}
	metrics.RecordSubscribe(ch.Name, err)
	if err != nil {
		m.Logger.Warning("Subscribe [%s] failed: %v", ch.Name, err)
	} else {
		m.setHandle(ch.Name, sub)
		m.Logger.Info("Subscribe [%s]", ch.Name)
	}
	return m.Sleeper.Sleep(ctx, m.Interval)
}

// RenewToken extends the private access token. A failed extension drops the
// token so the next Connect issues a new one.
func (m *ChannelManager) RenewToken(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()
	if token == "" || !m.open(ctx) {
		return
	}
	if err := m.Tokens.ExtendWSToken(ctx, token); err != nil {
		m.Logger.Warning("Failed to extend access token: %v", err)
		m.dropToken(token)
		return
	}
	m.Logger.Info("TOKEN EXTENDED")
}

// Close unsubscribes and closes every running channel, spaced like
// subscribes, then revokes the token. Errors are ignored.
func (m *ChannelManager) Close(ctx context.Context) {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	for _, ch := range m.channels {
		m.mu.Lock()
		h := m.handles[ch.Name]
		delete(m.handles, ch.Name)
		m.mu.Unlock()
		if h == nil {
			continue
		}
		if !h.Running() {
			_ = h.Close()
			continue
		}
		_ = h.Unsubscribe()
		_ = h.Close()
		m.Logger.Info("Unsubscribe [%s]", ch.Name)
		_ = m.Sleeper.Sleep(ctx, m.Interval)
	}

	m.mu.Lock()
	token := m.token
	m.token = ""
	m.mu.Unlock()
	if token != "" && m.Tokens != nil {
		if err := m.Tokens.DeleteWSToken(ctx, token); err != nil {
			m.Logger.Debug("Failed to delete access token: %v", err)
		}
	}
}

// States reports whether each channel is running.
func (m *ChannelManager) States() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.channels))
	for _, ch := range m.channels {
		h := m.handles[ch.Name]
		out[ch.Name] = h != nil && h.Running()
	}
	return out
}
