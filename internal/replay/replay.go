// Package replay reconstructs a market's implied-price time series by
// folding its trade history into cumulative pool state.
//
// Replay is deterministic for a fixed input: trades are ordered by a stable
// sort on timestamp, so ties keep their original sequence order and two
// replays of the same history emit identical series. The fold is the
// pool-ratio model — price depends only on cumulative same-direction stake,
// never on the price each trade paid.
package replay

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/openpredict/listing-engine/internal/model"
	"github.com/openpredict/listing-engine/internal/pricing"
)

// DefaultMinPoints is the series length below which a live-price tail is
// appended, keeping short-lived or untraded markets renderable as a line
// rather than a single dot.
const DefaultMinPoints = 2

// Options tunes series reconstruction.
type Options struct {
	// MinPoints is the target minimum series length; zero means
	// DefaultMinPoints.
	MinPoints int

	// LivePrice is the market's current implied YES price from its present
	// pool state, appended as a final point when the replayed series is
	// shorter than MinPoints. Nil disables the tail.
	LivePrice *decimal.Decimal

	// NowMillis stamps the appended live-price point.
	NowMillis int64
}

// Reconstruct replays an ordered trade history into a price series.
//
// The series opens with a seed point at the market's creation time using
// the given initial implied prices (a market may carry a skewed prior;
// both zero means no prior and seeds at 0.5), clamped to the plottable
// range. Each trade then adds its amount to the matching pool and emits
// one clamped point at the trade's timestamp.
//
// Total function: an empty trade list still produces a valid one- or
// two-point series, and no emitted value is ever NaN or infinite.
func Reconstruct(seedYesPrice, seedNoPrice decimal.Decimal, marketCreatedAtMs int64, trades []model.Trade, opts Options) []model.PricePoint {
	minPoints := opts.MinPoints
	if minPoints <= 0 {
		minPoints = DefaultMinPoints
	}

	points := make([]model.PricePoint, 0, len(trades)+2)

	seedYes := seedYesPrice
	if seedYes.Add(seedNoPrice).IsZero() {
		seedYes = pricing.Half
	}
	yes, no := pricing.ClampedPair(seedYes)
	points = append(points, model.PricePoint{
		Index:       0,
		TimestampMs: marketCreatedAtMs,
		YesPrice:    yes,
		NoPrice:     no,
	})

	// Work on a copy: the history is append-only and not ours to reorder.
	ordered := make([]model.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TimestampMs < ordered[j].TimestampMs
	})

	yesPool, noPool := decimal.Zero, decimal.Zero
	for _, tr := range ordered {
		if tr.Side == model.SideYes {
			yesPool = yesPool.Add(tr.Amount)
		} else {
			noPool = noPool.Add(tr.Amount)
		}
		yes, no = pricing.PoolPair(yesPool, noPool)
		points = append(points, model.PricePoint{
			Index:       len(points),
			TimestampMs: tr.TimestampMs,
			YesPrice:    yes,
			NoPrice:     no,
		})
	}

	if len(points) < minPoints && opts.LivePrice != nil {
		yes, no = pricing.ClampedPair(*opts.LivePrice)
		points = append(points, model.PricePoint{
			Index:       len(points),
			TimestampMs: opts.NowMillis,
			YesPrice:    yes,
			NoPrice:     no,
		})
	}

	return points
}
