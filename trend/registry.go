package trend

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownChecker is returned by New for an unregistered type.
var ErrUnknownChecker = errors.New("unknown trend checker")

// Config selects a checker variant and its parameters.
type Config struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Factory builds a checker from raw JSON parameters.
type Factory func(params json.RawMessage) (Checker, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	Register(directionRunFactory, "simple", "direction_run")
	Register(momentumGatedFactory, "rsi", "momentum_gated")
}

// Register binds one or more type names to a factory.
func Register(f Factory, names ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, n := range names {
		registry[n] = f
	}
}

// Types lists the registered names.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// New resolves cfg to a checker. An empty type means "simple".
func New(cfg Config) (Checker, error) {
	name := cfg.Type
	if name == "" {
		name = "simple"
	}
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChecker, cfg.Type)
	}
	c, err := f(cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("trend checker %q: %w", name, err)
	}
	return c, nil
}

type directionRunParams struct {
	CoolTime      *int     `json:"cool_time"`
	CheckLength   *int     `json:"check_length"`
	RateThreshold *float64 `json:"rate_threshold"`
}

func (p directionRunParams) apply(d *DirectionRun) error {
	if p.CoolTime != nil {
		d.CoolTime = *p.CoolTime
	}
	if p.CheckLength != nil {
		d.CheckLength = *p.CheckLength
	}
	if p.RateThreshold != nil {
		d.RateThreshold = *p.RateThreshold
	}
	if d.CheckLength <= 0 {
		return fmt.Errorf("check_length must be positive, got %d", d.CheckLength)
	}
	if d.CoolTime < 0 {
		return fmt.Errorf("cool_time must not be negative, got %d", d.CoolTime)
	}
	return nil
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}
	return nil
}

func directionRunFactory(raw json.RawMessage) (Checker, error) {
	var p directionRunParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	d := NewDirectionRun()
	if err := p.apply(d); err != nil {
		return nil, err
	}
	return d, nil
}

type momentumGatedParams struct {
	directionRunParams
	Period *int     `json:"period"`
	Th1    *float64 `json:"th1"`
	Th2    *float64 `json:"th2"`
}

func momentumGatedFactory(raw json.RawMessage) (Checker, error) {
	var p momentumGatedParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	m := NewMomentumGated(14, 50, 50)
	if err := p.apply(&m.Base); err != nil {
		return nil, err
	}
	if p.Period != nil {
		m.Period = *p.Period
	}
	if p.Th1 != nil {
		m.Th1 = *p.Th1
	}
	if p.Th2 != nil {
		m.Th2 = *p.Th2
	}
	if m.Period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", m.Period)
	}
	return m, nil
}
