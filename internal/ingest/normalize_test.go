package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openpredict/listing-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

// --- Timestamp coercion ---

func TestNormalize_RFC3339ClosingTime(t *testing.T) {
	m := Normalize(model.RawMarketRecord{
		Title:       "BTC $100k?",
		ClosingTime: raw(`"2025-12-31T00:00:00Z"`),
	}, testNow)

	want := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC).UnixMilli()
	if m.ClosingTimeMs != want {
		t.Errorf("closing time = %d, want %d", m.ClosingTimeMs, want)
	}
}

func TestNormalize_EpochSecondsAndMillis(t *testing.T) {
	secs := Normalize(model.RawMarketRecord{ClosingTime: raw(`1750000000`)}, testNow)
	if secs.ClosingTimeMs != 1750000000000 {
		t.Errorf("seconds encoding: got %d, want 1750000000000", secs.ClosingTimeMs)
	}

	millis := Normalize(model.RawMarketRecord{ClosingTime: raw(`1750000000000`)}, testNow)
	if millis.ClosingTimeMs != 1750000000000 {
		t.Errorf("millis encoding: got %d, want 1750000000000", millis.ClosingTimeMs)
	}

	asString := Normalize(model.RawMarketRecord{ClosingTime: raw(`"1750000000"`)}, testNow)
	if asString.ClosingTimeMs != 1750000000000 {
		t.Errorf("stringified epoch: got %d, want 1750000000000", asString.ClosingTimeMs)
	}
}

func TestNormalize_WrappedTimestamp(t *testing.T) {
	m := Normalize(model.RawMarketRecord{
		ClosingTime: raw(`{"seconds": 1750000000, "nanoseconds": 500000000}`),
	}, testNow)
	if m.ClosingTimeMs != 1750000000500 {
		t.Errorf("wrapped timestamp: got %d, want 1750000000500", m.ClosingTimeMs)
	}

	underscored := Normalize(model.RawMarketRecord{
		ClosingTime: raw(`{"_seconds": 1750000000, "_nanoseconds": 0}`),
	}, testNow)
	if underscored.ClosingTimeMs != 1750000000000 {
		t.Errorf("underscored wrapped timestamp: got %d", underscored.ClosingTimeMs)
	}
}

func TestNormalize_MissingClosingTimeFallsBackToNow(t *testing.T) {
	m := Normalize(model.RawMarketRecord{Title: "no close"}, testNow)
	if m.ClosingTimeMs != testNow.UnixMilli() {
		t.Errorf("expected fallback to now, got %d", m.ClosingTimeMs)
	}
}

func TestNormalize_GarbageTimestampFallsBack(t *testing.T) {
	m := Normalize(model.RawMarketRecord{ClosingTime: raw(`"next tuesday"`)}, testNow)
	if m.ClosingTimeMs != testNow.UnixMilli() {
		t.Errorf("expected fallback for garbage timestamp, got %d", m.ClosingTimeMs)
	}
}

// --- Category / title / slug ---

func TestNormalize_CategoryDefaultsAndLowercases(t *testing.T) {
	if m := Normalize(model.RawMarketRecord{Category: "Crypto"}, testNow); m.Category != "crypto" {
		t.Errorf("expected lowercase category, got %q", m.Category)
	}
	if m := Normalize(model.RawMarketRecord{}, testNow); m.Category != "general" {
		t.Errorf("expected default category general, got %q", m.Category)
	}
	if m := Normalize(model.RawMarketRecord{Category: "  "}, testNow); m.Category != "general" {
		t.Errorf("expected blank category to default, got %q", m.Category)
	}
}

func TestNormalize_MissingTitleDoesNotFail(t *testing.T) {
	m := Normalize(model.RawMarketRecord{Category: "crypto"}, testNow)
	if m.Question != "" {
		t.Errorf("expected empty question, got %q", m.Question)
	}
	if m.ID == "" {
		t.Error("expected generated ID for record without one")
	}
}

func TestNormalize_QuestionFieldAlias(t *testing.T) {
	m := Normalize(model.RawMarketRecord{Question: "Will it rain?"}, testNow)
	if m.Question != "Will it rain?" {
		t.Errorf("expected question field to be used, got %q", m.Question)
	}
}

func TestNormalize_SlugDerivedFromQuestion(t *testing.T) {
	m := Normalize(model.RawMarketRecord{Title: "BTC over $100k by 2026?"}, testNow)
	if m.Slug != "btc-over-100k-by-2026" {
		t.Errorf("slug = %q", m.Slug)
	}

	supplied := Normalize(model.RawMarketRecord{Title: "BTC?", Slug: "custom-slug"}, testNow)
	if supplied.Slug != "custom-slug" {
		t.Errorf("supplied slug should win, got %q", supplied.Slug)
	}
}

// --- Pools and volume ---

func TestNormalize_StringEncodedNumerics(t *testing.T) {
	m := Normalize(model.RawMarketRecord{
		YesPool:     raw(`"120.5"`),
		NoPool:      raw(`80`),
		TotalVolume: raw(`"4200000"`),
	}, testNow)

	if !m.YesPool.Equal(d(120.5)) {
		t.Errorf("yes pool = %s", m.YesPool)
	}
	if !m.NoPool.Equal(d(80)) {
		t.Errorf("no pool = %s", m.NoPool)
	}
	if !m.VolumeValue.Equal(d(4200000)) {
		t.Errorf("volume = %s", m.VolumeValue)
	}
}

func TestNormalize_NegativePoolFloorsAtZero(t *testing.T) {
	m := Normalize(model.RawMarketRecord{YesPool: raw(`-5`)}, testNow)
	if !m.YesPool.IsZero() {
		t.Errorf("negative pool should floor at zero, got %s", m.YesPool)
	}
}

func TestNormalize_DisplayVolumeFallback(t *testing.T) {
	// Legacy record: only the compact display string carries the volume.
	m := Normalize(model.RawMarketRecord{VolumeDisplay: "4.2M"}, testNow)
	if !m.VolumeValue.Equal(d(4200000)) {
		t.Errorf("expected parsed 4200000, got %s", m.VolumeValue)
	}

	// Numeric field always wins over the display string.
	m = Normalize(model.RawMarketRecord{TotalVolume: raw(`100`), VolumeDisplay: "4.2M"}, testNow)
	if !m.VolumeValue.Equal(d(100)) {
		t.Errorf("numeric volume should win, got %s", m.VolumeValue)
	}
}

// --- Hot flag ---

func TestNormalize_HotByVolume(t *testing.T) {
	old := raw(`"2025-01-01T00:00:00Z"`)
	hot := Normalize(model.RawMarketRecord{TotalVolume: raw(`1000001`), CreatedAt: old}, testNow)
	if !hot.IsHot {
		t.Error("volume above threshold should be hot")
	}
	cold := Normalize(model.RawMarketRecord{TotalVolume: raw(`1000000`), CreatedAt: old}, testNow)
	if cold.IsHot {
		t.Error("volume exactly at threshold should not be hot")
	}
}

func TestNormalize_HotByRecentCreation(t *testing.T) {
	recent := testNow.Add(-23 * time.Hour).Format(time.RFC3339)
	m := Normalize(model.RawMarketRecord{CreatedAt: raw(`"` + recent + `"`)}, testNow)
	if !m.IsHot {
		t.Error("market created within 24h should be hot")
	}

	stale := testNow.Add(-25 * time.Hour).Format(time.RFC3339)
	m = Normalize(model.RawMarketRecord{CreatedAt: raw(`"` + stale + `"`)}, testNow)
	if m.IsHot {
		t.Error("market created over 24h ago with no volume should not be hot")
	}
}

// --- Compact volume formatting ---

func TestFormatCompactVolume(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{850, "850"},
		{850_000, "850K"},
		{4_200_000, "4.2M"},
		{1_000_000, "1M"},
		{1_300_000_000, "1.3B"},
	}
	for _, tt := range tests {
		if got := FormatCompactVolume(d(tt.in)); got != tt.want {
			t.Errorf("FormatCompactVolume(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseCompactVolume(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"850K", 850_000},
		{"4.2M", 4_200_000},
		{"1.3b", 1_300_000_000},
		{"1200", 1200},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := ParseCompactVolume(tt.in); !got.Equal(d(tt.want)) {
			t.Errorf("ParseCompactVolume(%q) = %s, want %v", tt.in, got, tt.want)
		}
	}
}
