// Package catalog provides the HTTP handlers and business logic for
// refreshing the canonical market set, serving filtered listings, and
// reconstructing price histories.
//
// All pool sizes, volumes and prices use shopspring/decimal — never float64 for money.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpredict/listing-engine/internal/dedup"
	"github.com/openpredict/listing-engine/internal/ingest"
	"github.com/openpredict/listing-engine/internal/listing"
	"github.com/openpredict/listing-engine/internal/metrics"
	"github.com/openpredict/listing-engine/internal/model"
	"github.com/openpredict/listing-engine/internal/pricing"
	"github.com/openpredict/listing-engine/internal/replay"
	"github.com/openpredict/listing-engine/internal/store"
)

// RecordFetcher supplies raw market records from an upstream source.
type RecordFetcher interface {
	FetchRecords(ctx context.Context) ([]model.RawMarketRecord, error)
}

// FallbackFunc supplies the fixed sample set used when the upstream fails.
type FallbackFunc func() []model.RawMarketRecord

// Service handles catalog operations. A mutex serializes trade execution
// (single-instance); the view cache memoizes the filter/sort pipeline on
// its inputs plus the canonical set's generation.
type Service struct {
	store     store.Store
	upstream  RecordFetcher
	fallback  FallbackFunc
	viewCache *listing.Cache

	generation atomic.Uint64
	mu         sync.Mutex // serialized trade execution
	wsHub      *WSHub     // optional, nil disables broadcasts
}

// NewService creates a new catalog service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, upstream RecordFetcher, fallback FallbackFunc, hub *WSHub) *Service {
	return &Service{
		store:     st,
		upstream:  upstream,
		fallback:  fallback,
		viewCache: listing.NewCache(),
		wsHub:     hub,
	}
}

// Refresh fetches the upstream record set, normalizes and deduplicates it,
// and replaces the canonical set. When the upstream fetch fails the fixed
// fallback set takes its place — a superseded or failed fetch never leaves
// the catalog empty.
func (s *Service) Refresh(ctx context.Context) error {
	origin := "upstream"
	raws, err := s.upstream.FetchRecords(ctx)
	if err != nil {
		if s.fallback == nil {
			return err
		}
		slog.Warn("upstream fetch failed, using fallback set", "err", err)
		raws = s.fallback()
		origin = "fallback"
	}

	now := time.Now().UTC()
	normalized := ingest.NormalizeAll(raws, now)
	canonical := dedup.Dedupe(normalized)

	if err := s.store.ReplaceMarkets(ctx, canonical); err != nil {
		return err
	}
	s.generation.Add(1)
	s.viewCache.Invalidate()

	metrics.RecordsNormalized.WithLabelValues(origin).Add(float64(len(normalized)))
	metrics.DedupMerges.Add(float64(len(normalized) - len(canonical)))
	metrics.CanonicalMarkets.Set(float64(len(canonical)))
	metrics.RefreshTotal.WithLabelValues(origin).Inc()

	slog.Info("catalog refreshed",
		"origin", origin,
		"records", len(raws),
		"canonical", len(canonical),
		"generation", s.generation.Load(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:        "catalog_refreshed",
			MarketCount: len(canonical),
		})
	}
	return nil
}

// RunRefresher polls the upstream on the given interval until the context
// is cancelled. An immediate first refresh primes the catalog.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	if err := s.Refresh(ctx); err != nil {
		slog.Error("initial refresh failed", "err", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				slog.Error("refresh failed", "err", err)
			}
		}
	}
}

// --- HTTP Handlers ---

// HandleRefresh handles POST /api/v1/refresh
func (s *Service) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Refresh(r.Context()); err != nil {
		writeError(w, "refresh failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]uint64{"generation": s.generation.Load()})
}

// ListMarkets handles GET /api/v1/markets?category=&q=&mode=
// Returns the filtered, ordered listing. The reference instant is captured
// once per request so the whole sort shares a consistent total order.
func (s *Service) ListMarkets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	if category == "" {
		category = listing.CategoryAll
	}
	query := q.Get("q")
	mode := listing.Mode(q.Get("mode"))
	if mode == "" {
		mode = listing.ModeAll
	}

	generation := s.generation.Load()
	view, ok := s.viewCache.Get(generation, category, query, mode)
	if ok {
		metrics.ViewCacheHits.WithLabelValues("hit").Inc()
	} else {
		metrics.ViewCacheHits.WithLabelValues("miss").Inc()

		markets, err := s.store.ListMarkets(r.Context())
		if err != nil {
			writeError(w, "failed to list markets", http.StatusInternalServerError)
			return
		}

		referenceNow := time.Now().UnixMilli()
		start := time.Now()
		view = listing.View(markets, category, query, mode, referenceNow)
		metrics.ViewLatency.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())

		s.viewCache.Put(generation, category, query, mode, view)
	}

	if view == nil {
		view = []model.Market{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// GetMarket handles GET /api/v1/markets/{marketID}
// The path segment is tried as an ID first, then as a slug.
func (s *Service) GetMarket(w http.ResponseWriter, r *http.Request) {
	market, err := s.findMarket(r.Context(), chi.URLParam(r, "marketID"))
	if err != nil {
		writeError(w, "market not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(market)
}

// GetPriceHistory handles GET /api/v1/markets/{marketID}/prices
// Replays the market's trade history into a chartable price series.
func (s *Service) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	market, err := s.findMarket(ctx, chi.URLParam(r, "marketID"))
	if err != nil {
		writeError(w, "market not found", http.StatusNotFound)
		return
	}

	trades, err := s.store.GetTradesByMarket(ctx, market.ID)
	if err != nil {
		writeError(w, "failed to load trade history", http.StatusInternalServerError)
		return
	}

	// Pools start empty at creation and every local trade flows through the
	// fold, so the replay seed is the empty-pool midpoint.
	live := pricing.Price(market.YesPool, market.NoPool)
	points := replay.Reconstruct(decimal.Zero, decimal.Zero, market.CreatedAtMs, trades, replay.Options{
		LivePrice: &live,
		NowMillis: time.Now().UnixMilli(),
	})
	metrics.ReplayPoints.Observe(float64(len(points)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(points)
}

// PlaceTradeRequest is the JSON body for POST /api/v1/markets/{marketID}/trades.
type PlaceTradeRequest struct {
	Side   string          `json:"side"`   // "YES" or "NO"
	Amount decimal.Decimal `json:"amount"` // stake, must be positive
}

// PlaceTradeResponse is the JSON body returned from a trade append.
type PlaceTradeResponse struct {
	TradeID  string          `json:"trade_id"`
	MarketID string          `json:"market_id"`
	Side     string          `json:"side"`
	Amount   decimal.Decimal `json:"amount"`
	YesPrice decimal.Decimal `json:"yes_price"`
	NoPrice  decimal.Decimal `json:"no_price"`
}

// PlaceTrade handles POST /api/v1/markets/{marketID}/trades
// Appends a trade to the market's history and accumulates its stake into
// the matching pool. Stake accumulation, not order matching: the pools
// track total same-direction stake.
func (s *Service) PlaceTrade(w http.ResponseWriter, r *http.Request) {
	var req PlaceTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Side != model.SideYes && req.Side != model.SideNo {
		writeError(w, "side must be YES or NO", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Serialize trade execution.
	s.mu.Lock()
	defer s.mu.Unlock()

	market, err := s.findMarket(ctx, chi.URLParam(r, "marketID"))
	if err != nil {
		writeError(w, "market not found", http.StatusNotFound)
		return
	}

	newYes, newNo := market.YesPool, market.NoPool
	if req.Side == model.SideYes {
		newYes = newYes.Add(req.Amount)
	} else {
		newNo = newNo.Add(req.Amount)
	}
	newVolume := market.VolumeValue.Add(req.Amount)

	if err := s.store.UpdateMarketPools(ctx, market.ID, newYes, newNo, newVolume); err != nil {
		writeError(w, "failed to update market state", http.StatusInternalServerError)
		return
	}

	trade := &model.Trade{
		ID:          uuid.New().String(),
		MarketID:    market.ID,
		Side:        req.Side,
		Amount:      req.Amount,
		TimestampMs: time.Now().UnixMilli(),
	}
	if err := s.store.InsertTrade(ctx, trade); err != nil {
		writeError(w, "failed to record trade", http.StatusInternalServerError)
		return
	}

	// Pools changed, so memoized views keyed on the old set are stale.
	s.generation.Add(1)
	s.viewCache.Invalidate()

	yesPrice, noPrice := pricing.PoolPair(newYes, newNo)

	slog.Info("trade recorded",
		"trade_id", trade.ID,
		"market", market.ID,
		"side", req.Side,
		"amount", req.Amount.String(),
		"yes_price", yesPrice.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:     "price_update",
			MarketID: market.ID,
			Slug:     market.Slug,
			YesPrice: yesPrice.String(),
			NoPrice:  noPrice.String(),
			Side:     req.Side,
			Amount:   req.Amount.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PlaceTradeResponse{
		TradeID:  trade.ID,
		MarketID: market.ID,
		Side:     req.Side,
		Amount:   req.Amount,
		YesPrice: yesPrice,
		NoPrice:  noPrice,
	})
}

// findMarket resolves a path segment as a market ID, then as a slug.
func (s *Service) findMarket(ctx context.Context, key string) (*model.Market, error) {
	market, err := s.store.GetMarket(ctx, key)
	if err == nil {
		return market, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return s.store.GetMarketBySlug(ctx, key)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
