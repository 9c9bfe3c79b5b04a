package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/openpredict/listing-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) ReplaceMarkets(ctx context.Context, markets []model.Market) error {
	if err := s.primary.ReplaceMarkets(ctx, markets); err != nil {
		return err
	}
	// The whole canonical set changed; re-seed the list key. Stale
	// per-market entries age out via TTL.
	s.rdb.Del(ctx, catalogKey())
	if data, err := json.Marshal(markets); err == nil {
		s.rdb.Set(ctx, catalogKey(), data, s.ttl)
	}
	return nil
}

func (s *CachedStore) UpdateMarketPools(ctx context.Context, id string, yesPool, noPool, volume decimal.Decimal) error {
	if err := s.primary.UpdateMarketPools(ctx, id, yesPool, noPool, volume); err != nil {
		return err
	}
	// Invalidate; next read re-populates.
	s.rdb.Del(ctx, marketKey(id), catalogKey())
	return nil
}

func (s *CachedStore) InsertTrade(ctx context.Context, trade *model.Trade) error {
	if err := s.primary.InsertTrade(ctx, trade); err != nil {
		return err
	}
	s.rdb.Del(ctx, tradesKey(trade.MarketID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	data, err := s.rdb.Get(ctx, marketKey(id)).Bytes()
	if err == nil {
		var m model.Market
		if json.Unmarshal(data, &m) == nil {
			return &m, nil
		}
	}

	m, err := s.primary.GetMarket(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheMarket(ctx, m)
	return m, nil
}

func (s *CachedStore) GetMarketBySlug(ctx context.Context, slug string) (*model.Market, error) {
	// Try cache via slug→marketID mapping.
	marketID, err := s.rdb.Get(ctx, slugKey(slug)).Result()
	if err == nil {
		return s.GetMarket(ctx, marketID)
	}

	m, err := s.primary.GetMarketBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	// Cache both the market and the slug→ID mapping.
	s.cacheMarket(ctx, m)
	s.rdb.Set(ctx, slugKey(slug), m.ID, s.ttl)
	return m, nil
}

func (s *CachedStore) ListMarkets(ctx context.Context) ([]model.Market, error) {
	data, err := s.rdb.Get(ctx, catalogKey()).Bytes()
	if err == nil {
		var markets []model.Market
		if json.Unmarshal(data, &markets) == nil {
			return markets, nil
		}
	}

	markets, err := s.primary.ListMarkets(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(markets); err == nil {
		s.rdb.Set(ctx, catalogKey(), data, s.ttl)
	}
	return markets, nil
}

func (s *CachedStore) GetTradesByMarket(ctx context.Context, marketID string) ([]model.Trade, error) {
	data, err := s.rdb.Get(ctx, tradesKey(marketID)).Bytes()
	if err == nil {
		var trades []model.Trade
		if json.Unmarshal(data, &trades) == nil {
			return trades, nil
		}
	}

	trades, err := s.primary.GetTradesByMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(trades); err == nil {
		s.rdb.Set(ctx, tradesKey(marketID), data, s.ttl)
	}
	return trades, nil
}

// --- Cache helpers ---

func (s *CachedStore) cacheMarket(ctx context.Context, m *model.Market) {
	if data, err := json.Marshal(m); err == nil {
		s.rdb.Set(ctx, marketKey(m.ID), data, s.ttl)
	}
}

func marketKey(id string) string { return fmt.Sprintf("market:%s", id) }
func slugKey(slug string) string { return fmt.Sprintf("slug:%s", slug) }
func tradesKey(id string) string { return fmt.Sprintf("trades:%s", id) }
func catalogKey() string         { return "catalog:all" }
