// Package store defines the persistence interface for the listing engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing and development).
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/openpredict/listing-engine/internal/model"
)

// ErrNotFound is returned when a market or trade lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. The canonical market set is replaced
// wholesale on every refresh; trade histories are append-only.
type Store interface {
	// --- Canonical market set ---

	// ReplaceMarkets swaps the canonical set for a freshly deduplicated one.
	ReplaceMarkets(ctx context.Context, markets []model.Market) error

	// GetMarket retrieves a market by its ID.
	GetMarket(ctx context.Context, id string) (*model.Market, error)

	// GetMarketBySlug retrieves a market by its URL slug.
	GetMarketBySlug(ctx context.Context, slug string) (*model.Market, error)

	// ListMarkets returns the full canonical set.
	ListMarkets(ctx context.Context) ([]model.Market, error)

	// UpdateMarketPools updates pool sizes and volume after a trade.
	UpdateMarketPools(ctx context.Context, id string, yesPool, noPool, volume decimal.Decimal) error

	// --- Append-only trade history ---

	// InsertTrade appends a trade to a market's history.
	InsertTrade(ctx context.Context, trade *model.Trade) error

	// GetTradesByMarket returns all trades for a market in insertion order.
	GetTradesByMarket(ctx context.Context, marketID string) ([]model.Trade, error)
}
