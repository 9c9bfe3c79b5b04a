package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openpredict/listing-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func seed(t *testing.T, s *MemoryStore) {
	t.Helper()
	err := s.ReplaceMarkets(context.Background(), []model.Market{
		{ID: "m1", Slug: "btc-100k", Question: "BTC $100k?"},
		{ID: "m2", Slug: "eth-flip", Question: "ETH flip?"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestMemoryStore_ReplaceAndList(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s)

	markets, err := s.ListMarkets(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(markets) != 2 || markets[0].ID != "m1" || markets[1].ID != "m2" {
		t.Fatalf("list order not preserved: %+v", markets)
	}

	// A second replace discards the previous set entirely.
	if err := s.ReplaceMarkets(context.Background(), []model.Market{{ID: "m3"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	markets, _ = s.ListMarkets(context.Background())
	if len(markets) != 1 || markets[0].ID != "m3" {
		t.Fatalf("expected replaced set, got %+v", markets)
	}
}

func TestMemoryStore_GetMarket(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s)

	m, err := s.GetMarket(context.Background(), "m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.Question != "BTC $100k?" {
		t.Errorf("question = %q", m.Question)
	}

	if _, err := s.GetMarket(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_GetMarketBySlug(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s)

	m, err := s.GetMarketBySlug(context.Background(), "eth-flip")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if m.ID != "m2" {
		t.Errorf("id = %q", m.ID)
	}

	if _, err := s.GetMarketBySlug(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s)

	m, _ := s.GetMarket(context.Background(), "m1")
	m.Question = "mutated"

	again, _ := s.GetMarket(context.Background(), "m1")
	if again.Question != "BTC $100k?" {
		t.Error("store handed out a shared pointer")
	}
}

func TestMemoryStore_UpdateMarketPools(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s)

	if err := s.UpdateMarketPools(context.Background(), "m1", d(30), d(70), d(100)); err != nil {
		t.Fatalf("update: %v", err)
	}
	m, _ := s.GetMarket(context.Background(), "m1")
	if !m.YesPool.Equal(d(30)) || !m.NoPool.Equal(d(70)) || !m.VolumeValue.Equal(d(100)) {
		t.Errorf("pools not updated: %+v", m)
	}

	err := s.UpdateMarketPools(context.Background(), "nope", d(1), d(1), d(1))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_TradesInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s)

	for i, id := range []string{"t1", "t2", "t3"} {
		err := s.InsertTrade(context.Background(), &model.Trade{
			ID:          id,
			MarketID:    "m1",
			Side:        model.SideYes,
			Amount:      d(10),
			TimestampMs: int64(1000 + i),
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	_ = s.InsertTrade(context.Background(), &model.Trade{ID: "other", MarketID: "m2"})

	trades, err := s.GetTradesByMarket(context.Background(), "m1")
	if err != nil {
		t.Fatalf("get trades: %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(trades))
	}
	for i, id := range []string{"t1", "t2", "t3"} {
		if trades[i].ID != id {
			t.Errorf("trade %d = %s, want %s", i, trades[i].ID, id)
		}
	}
}
