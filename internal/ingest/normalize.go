// Package ingest converts raw, heterogeneously-shaped market records into
// canonical model.Market values. Normalization is the trust boundary: no
// unnormalized record crosses into the deduplicator or the listing engine.
//
// Normalize is total — a record missing every field still normalizes (the
// caller decides whether an untitled market is worth keeping).
package ingest

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpredict/listing-engine/internal/model"
)

// HighVolumeThreshold marks a market as hot on volume alone.
var HighVolumeThreshold = decimal.NewFromInt(1_000_000)

// hotCreationWindow marks a market as hot when it was created recently.
const hotCreationWindow = 24 * time.Hour

// Normalize converts a raw record into a canonical Market. now is captured
// once by the caller and threaded through so a whole batch shares one
// reference instant for the hot flag and the closing-time fallback.
func Normalize(raw model.RawMarketRecord, now time.Time) model.Market {
	nowMs := now.UnixMilli()

	id := raw.ID
	if id == "" {
		id = uuid.New().String()
	}

	category := strings.ToLower(strings.TrimSpace(raw.Category))
	if category == "" {
		category = "general"
	}

	question := raw.DisplayTitle()

	slug := raw.Slug
	if slug == "" {
		slug = Slugify(question)
	}

	// A missing closing time signals a malformed upstream record; fall back
	// to now rather than rejecting, per the total-function contract.
	closingMs := coerceTimeMs(raw.ClosingTime, nowMs)
	createdMs := coerceTimeMs(raw.CreatedAt, nowMs)

	yesPool := coerceDecimal(raw.YesPool)
	noPool := coerceDecimal(raw.NoPool)

	volume := coerceDecimal(raw.TotalVolume)
	if volume.IsZero() && raw.VolumeDisplay != "" {
		// Legacy-record fallback only: display strings are lossy and must
		// never become the primary source of truth.
		volume = ParseCompactVolume(raw.VolumeDisplay)
	}

	isHot := volume.GreaterThan(HighVolumeThreshold) ||
		nowMs-createdMs < hotCreationWindow.Milliseconds()

	return model.Market{
		ID:            id,
		Category:      category,
		Question:      question,
		Slug:          slug,
		ClosingTimeMs: closingMs,
		CreatedAtMs:   createdMs,
		YesPool:       yesPool,
		NoPool:        noPool,
		VolumeValue:   volume,
		DisplayVolume: FormatCompactVolume(volume),
		IsHot:         isHot,
		ExternalRef:   raw.BlockchainID,
	}
}

// NormalizeAll normalizes a batch under a single reference instant.
func NormalizeAll(raws []model.RawMarketRecord, now time.Time) []model.Market {
	markets := make([]model.Market, 0, len(raws))
	for _, raw := range raws {
		markets = append(markets, Normalize(raw, now))
	}
	return markets
}

// Slugify derives a URL-safe identifier from a market question.
func Slugify(s string) string {
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
