// Package model defines the core domain types shared across the listing engine.
// All pool sizes, volumes and prices use shopspring/decimal — never float64 for money.
package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Trade sides.
const (
	SideYes = "YES"
	SideNo  = "NO"
)

// RawMarketRecord is an untrusted market record as supplied by an upstream
// source. Every field is optional and several arrive in more than one shape:
// timestamps may be RFC3339 strings, unix seconds/millis, or a wrapped
// {seconds,nanos} object; numerics may be JSON numbers or string-encoded.
// The ingest package is the only consumer; nothing downstream of it ever
// touches a raw record.
type RawMarketRecord struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Question      string          `json:"question"` // some sources say "question", some "title"
	Category      string          `json:"category"`
	Slug          string          `json:"slug"`
	ClosingTime   json.RawMessage `json:"closingTime"`
	CreatedAt     json.RawMessage `json:"createdAt"`
	YesPool       json.RawMessage `json:"yesPool"`
	NoPool        json.RawMessage `json:"noPool"`
	TotalVolume   json.RawMessage `json:"totalVolume"`
	VolumeDisplay string          `json:"volumeDisplay"` // legacy records: "4.2M" style, fallback only
	Status        string          `json:"status"`
	BlockchainID  string          `json:"blockchainId"`
}

// DisplayTitle returns the record's title, whichever field the source used.
func (r *RawMarketRecord) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Question
}

// Market is a canonical, fully derived market record. Immutable once
// constructed: the pipeline that created it owns it, downstream consumers
// only read. Timestamps are epoch milliseconds with no ambiguity left.
type Market struct {
	ID            string          `json:"id" db:"id"`
	Category      string          `json:"category" db:"category"` // lower-cased, "general" when absent
	Question      string          `json:"question" db:"question"`
	Slug          string          `json:"slug" db:"slug"`
	ClosingTimeMs int64           `json:"closing_time_ms" db:"closing_time_ms"`
	CreatedAtMs   int64           `json:"created_at_ms" db:"created_at_ms"`
	YesPool       decimal.Decimal `json:"yes_pool" db:"yes_pool"`
	NoPool        decimal.Decimal `json:"no_pool" db:"no_pool"`
	VolumeValue   decimal.Decimal `json:"volume_value" db:"volume_value"`
	DisplayVolume string          `json:"display_volume" db:"display_volume"` // presentational only, never compared
	IsHot         bool            `json:"is_hot" db:"is_hot"`
	ExternalRef   string          `json:"external_ref,omitempty" db:"external_ref"` // on-chain linkage, drives dedup preference
}

// Trade is one entry in a market's append-only trade history.
// Consumed in non-decreasing timestamp order by the replay package.
type Trade struct {
	ID          string          `json:"id" db:"id"`
	MarketID    string          `json:"market_id" db:"market_id"`
	Side        string          `json:"side" db:"side"` // SideYes or SideNo
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	TimestampMs int64           `json:"timestamp_ms" db:"timestamp_ms"`
}

// PricePoint is one sample of a reconstructed price series. Produced fresh
// on every replay, never mutated. YesPrice + NoPrice is always 1 and both
// lie in the plottable range [0.01, 0.99].
type PricePoint struct {
	Index       int             `json:"index"`
	TimestampMs int64           `json:"timestamp_ms"`
	YesPrice    decimal.Decimal `json:"yes_price"`
	NoPrice     decimal.Decimal `json:"no_price"`
}
