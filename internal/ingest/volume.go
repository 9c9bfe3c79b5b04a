package ingest

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// FormatCompactVolume renders a volume figure for display: "850K", "4.2M",
// "1.3B". The result is purely presentational — sorting and comparison
// always use the numeric VolumeValue, since compact strings are lossy and
// category-ambiguous ("1.2M" vs "1200K").
func FormatCompactVolume(v decimal.Decimal) string {
	switch {
	case v.GreaterThanOrEqual(billion):
		return trimZero(v.Div(billion).Round(1).String()) + "B"
	case v.GreaterThanOrEqual(million):
		return trimZero(v.Div(million).Round(1).String()) + "M"
	case v.GreaterThanOrEqual(thousand):
		return trimZero(v.Div(thousand).Round(1).String()) + "K"
	default:
		return v.Round(0).String()
	}
}

// ParseCompactVolume parses a "4.2M"-style display string back into a
// number. Fallback path only, for legacy records that carry no numeric
// volume field. Unparseable input yields zero.
func ParseCompactVolume(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return decimal.Zero
	}

	mult := decimal.NewFromInt(1)
	switch s[len(s)-1] {
	case 'K':
		mult = thousand
		s = s[:len(s)-1]
	case 'M':
		mult = million
		s = s[:len(s)-1]
	case 'B':
		mult = billion
		s = s[:len(s)-1]
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d.Mul(mult)
}

// trimZero drops a trailing ".0" so 4.0 renders as "4".
func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
