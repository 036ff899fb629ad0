package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gmocoin-bot/internal/constants"
)

// ParseDecimal parses a numeric string from the exchange. Empty strings are zero.
func ParseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParsePrice parses a price string truncated to whole yen.
func ParsePrice(s string) float64 {
	return ParseDecimal(s).Truncate(0).InexactFloat64()
}

// ParseID parses an exchange id, returning 0 for anything that is not an integer.
func ParseID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// ParseTime accepts RFC3339 timestamps and epoch milliseconds.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

// FormatPrice renders a price for order payloads: whole numbers above 1000,
// three decimals below.
func FormatPrice(price decimal.Decimal) string {
	if price.GreaterThan(decimal.NewFromInt(1000)) {
		return price.StringFixed(0)
	}
	return price.StringFixed(3)
}

// FormatSize renders a size without trailing zeros.
func FormatSize(size decimal.Decimal) string {
	return size.String()
}

// OppositeSide returns the side that closes a position of the given side.
func OppositeSide(side string) string {
	switch side {
	case constants.Buy:
		return constants.Sell
	case constants.Sell:
		return constants.Buy
	default:
		return ""
	}
}

// NormalizeSide maps exchange and legacy side spellings to BUY/SELL.
func NormalizeSide(side string) string {
	switch strings.ToUpper(side) {
	case "BUY", "LONG":
		return constants.Buy
	case "SELL", "SHORT":
		return constants.Sell
	default:
		return ""
	}
}
