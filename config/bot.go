package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gmocoin-bot/internal/constants"
	"gmocoin-bot/trend"
)

// ExitRules toggles each exit rule independently.
type ExitRules struct {
	Profit   bool `json:"profit"`
	Reversal bool `json:"reversal"`
	Timeout  bool `json:"timeout"`
}

// BotConfig is one strategy instance.
type BotConfig struct {
	Name             string          `json:"name"`
	Symbol           string          `json:"symbol"`
	ProfitRate       float64         `json:"profit_rate"`
	SecondProfitRate float64         `json:"second_profit_rate"`
	LossCutRate      float64         `json:"loss_cut_rate"`
	MaxKeepTime      Seconds         `json:"max_keep_time"`
	GateTime         Seconds         `json:"gate_time"`
	MaxPositions     int             `json:"max_positions"`
	PositionUnit     decimal.Decimal `json:"position_unit"`
	EntryCoolTime    Seconds         `json:"entry_cool_time"`
	ExitRules        *ExitRules      `json:"exit_rules,omitempty"`
	TrendChecker     trend.Config    `json:"trend_checker"`
}

// Seconds is a duration written as a number of seconds in JSON.
type Seconds time.Duration

// Duration converts s.
func (s Seconds) Duration() time.Duration { return time.Duration(s) }

func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(s).Seconds())
}

func (s *Seconds) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("seconds must be a number: %w", err)
	}
	*s = Seconds(f * float64(time.Second))
	return nil
}

type botFile struct {
	Bots []BotConfig `json:"bot_configs"`
}

// LoadBotConfigs reads the strategy list from a JSON file. The file holds
// either {"bot_configs": [...]} or a single bare object.
func LoadBotConfigs(path string) ([]BotConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bot config %s: %w", path, err)
	}
	return ParseBotConfigs(data)
}

// ParseBotConfigs decodes and validates raw bot configuration.
func ParseBotConfigs(data []byte) ([]BotConfig, error) {
	var bots []BotConfig
	trimmed := strings.TrimSpace(string(data))
	if strings.Contains(trimmed, `"bot_configs"`) {
		var f botFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode bot config: %w", err)
		}
		bots = f.Bots
	} else {
		var b BotConfig
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("failed to decode bot config: %w", err)
		}
		bots = []BotConfig{b}
	}
	if len(bots) == 0 {
		return nil, fmt.Errorf("%w: no bots configured", ErrInvalidConfig)
	}
	for i := range bots {
		bots[i].applyDefaults()
		if err := bots[i].Validate(); err != nil {
			return nil, fmt.Errorf("bot %d: %w", i, err)
		}
	}
	return bots, nil
}

func (b *BotConfig) applyDefaults() {
	if b.Symbol == "" {
		b.Symbol = constants.DefaultSymbol
	}
	if b.Name == "" {
		b.Name = "bot-" + uuid.NewString()[:8]
	}
	if b.ExitRules == nil {
		b.ExitRules = &ExitRules{Profit: true}
	}
}

// Validate checks a single bot definition.
func (b *BotConfig) Validate() error {
	var problems []string
	if b.MaxPositions <= 0 {
		problems = append(problems, "max_positions must be positive")
	}
	if !b.PositionUnit.IsPositive() {
		problems = append(problems, "position_unit must be positive")
	}
	if b.EntryCoolTime < 0 {
		problems = append(problems, "entry_cool_time must not be negative")
	}
	if b.ExitRules != nil && b.ExitRules.Timeout && b.MaxKeepTime <= 0 {
		problems = append(problems, "max_keep_time is required when the timeout rule is on")
	}
	if _, err := trend.New(b.TrendChecker); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
