package ingest

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Upstream sources disagree on field shapes: timestamps arrive as RFC3339
// strings, unix seconds, unix milliseconds, or a wrapped {seconds,nanos}
// object; numerics arrive as JSON numbers or string-encoded numbers.
// Every coercion here is total: malformed input produces the fallback,
// never an error.

// wrappedTimestamp is the {seconds,nanos} envelope some document stores
// emit instead of a plain date. Underscore-prefixed variants are accepted
// because serialized client snapshots keep the private field names.
type wrappedTimestamp struct {
	Seconds  *int64 `json:"seconds"`
	Nanos    *int64 `json:"nanoseconds"`
	USeconds *int64 `json:"_seconds"`
	UNanos   *int64 `json:"_nanoseconds"`
}

// epochMillisThreshold separates unix-seconds from unix-millis encodings.
// Anything above ~Nov 2286 in seconds is read as milliseconds.
const epochMillisThreshold = 1e11

// coerceTimeMs converts a raw JSON timestamp field into epoch milliseconds.
// Returns fallbackMs when the field is absent or unparseable.
func coerceTimeMs(raw json.RawMessage, fallbackMs int64) int64 {
	if len(raw) == 0 || string(raw) == "null" {
		return fallbackMs
	}

	// Wrapped {seconds,nanos} object.
	var wrapped wrappedTimestamp
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		secs, nanos := wrapped.Seconds, wrapped.Nanos
		if secs == nil {
			secs, nanos = wrapped.USeconds, wrapped.UNanos
		}
		if secs != nil {
			ms := *secs * 1000
			if nanos != nil {
				ms += *nanos / int64(time.Millisecond)
			}
			return ms
		}
	}

	// Bare number: unix seconds or milliseconds by magnitude.
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return numToMillis(num)
	}

	// String: RFC3339(-ish) date or a stringified epoch number.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseTimeString(s, fallbackMs)
	}

	return fallbackMs
}

func parseTimeString(s string, fallbackMs int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallbackMs
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	if num, err := strconv.ParseFloat(s, 64); err == nil {
		return numToMillis(num)
	}
	return fallbackMs
}

func numToMillis(num float64) int64 {
	if num > epochMillisThreshold {
		return int64(num)
	}
	return int64(num * 1000)
}

// coerceDecimal converts a raw JSON numeric field (number or string-encoded
// number) into a decimal. Absent or malformed input yields zero; negative
// pool/volume figures are floored at zero so downstream invariants hold.
func coerceDecimal(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return clampNonNegative(decimal.NewFromFloat(num))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			return clampNonNegative(d)
		}
	}

	return decimal.Zero
}

func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
