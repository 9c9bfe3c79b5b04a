package dedup

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openpredict/listing-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func mk(id, question string, closing int64) model.Market {
	return model.Market{
		ID:            id,
		Question:      question,
		ClosingTimeMs: closing,
	}
}

func ids(markets []model.Market) []string {
	out := make([]string, len(markets))
	for i, m := range markets {
		out[i] = m.ID
	}
	return out
}

func TestKey_NormalizesQuestion(t *testing.T) {
	a := Key(mk("a", "  BTC $100k?  ", 1000))
	b := Key(mk("b", "btc $100k?", 1000))
	if a != b {
		t.Errorf("keys should match: %q vs %q", a, b)
	}

	other := Key(mk("c", "btc $100k?", 2000))
	if a == other {
		t.Error("different closing times must not share a key")
	}
}

func TestDedupe_DistinctMarketsUntouched(t *testing.T) {
	in := []model.Market{
		mk("a", "Q1", 1000),
		mk("b", "Q2", 1000),
		mk("c", "Q1", 2000),
	}
	out := Dedupe(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 survivors, got %d", len(out))
	}
}

func TestDedupe_ExternalRefBeatsVolume(t *testing.T) {
	linked := mk("linked", "BTC $100k?", 1000)
	linked.ExternalRef = "0xabc"
	linked.VolumeValue = d(500)

	whale := mk("whale", "BTC $100k?", 1000)
	whale.VolumeValue = d(50000)

	// Linked record arrives second: it must replace the higher-volume one.
	out := Dedupe([]model.Market{whale, linked})
	if len(out) != 1 || out[0].ID != "linked" {
		t.Fatalf("externalRef should win, survivors = %v", ids(out))
	}

	// Linked record arrives first: it must not be downgraded.
	out = Dedupe([]model.Market{linked, whale})
	if len(out) != 1 || out[0].ID != "linked" {
		t.Fatalf("externalRef should be kept, survivors = %v", ids(out))
	}
}

func TestDedupe_VolumeBreaksTie(t *testing.T) {
	small := mk("small", "Q", 1000)
	small.VolumeValue = d(10)
	big := mk("big", "Q", 1000)
	big.VolumeValue = d(20)

	out := Dedupe([]model.Market{small, big})
	if out[0].ID != "big" {
		t.Errorf("higher volume should win, got %s", out[0].ID)
	}

	out = Dedupe([]model.Market{big, small})
	if out[0].ID != "big" {
		t.Errorf("higher volume should win regardless of order, got %s", out[0].ID)
	}
}

func TestDedupe_CreatedAtBreaksVolumeTie(t *testing.T) {
	older := mk("older", "Q", 1000)
	older.VolumeValue = d(100)
	older.CreatedAtMs = 1

	newer := mk("newer", "Q", 1000)
	newer.VolumeValue = d(100)
	newer.CreatedAtMs = 2

	out := Dedupe([]model.Market{older, newer})
	if out[0].ID != "newer" {
		t.Errorf("later createdAt should win exact volume tie, got %s", out[0].ID)
	}
}

func TestDedupe_FullTieKeepsFirstSeen(t *testing.T) {
	first := mk("first", "Q", 1000)
	second := mk("second", "Q", 1000)

	out := Dedupe([]model.Market{first, second})
	if out[0].ID != "first" {
		t.Errorf("full tie should keep first-seen, got %s", out[0].ID)
	}
}

func TestDedupe_BothLinkedFallThroughToVolume(t *testing.T) {
	a := mk("a", "Q", 1000)
	a.ExternalRef = "0xaaa"
	a.VolumeValue = d(10)

	b := mk("b", "Q", 1000)
	b.ExternalRef = "0xbbb"
	b.VolumeValue = d(20)

	out := Dedupe([]model.Market{a, b})
	if out[0].ID != "b" {
		t.Errorf("both linked: volume decides, got %s", out[0].ID)
	}
}

func TestDedupe_SurvivorKeepsFirstSeenPosition(t *testing.T) {
	in := []model.Market{
		mk("a", "Q1", 1000),
		mk("b", "Q2", 1000),
		func() model.Market {
			m := mk("a2", "Q1", 1000)
			m.VolumeValue = d(99)
			return m
		}(),
		mk("c", "Q3", 1000),
	}
	out := Dedupe(in)
	got := ids(out)
	want := []string{"a2", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("positions = %v, want %v", got, want)
		}
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	linked := mk("linked", "Q", 1000)
	linked.ExternalRef = "0xabc"
	in := []model.Market{
		mk("a", "Q", 1000),
		linked,
		mk("b", "Q2", 2000),
		mk("c", "q2 ", 2000),
	}

	once := Dedupe(in)
	twice := Dedupe(once)

	if len(once) != len(twice) {
		t.Fatalf("idempotence violated: %d vs %d survivors", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("survivor %d differs: %s vs %s", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestDedupe_Empty(t *testing.T) {
	if out := Dedupe(nil); len(out) != 0 {
		t.Errorf("expected empty result, got %d", len(out))
	}
}
