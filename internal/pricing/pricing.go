// Package pricing implements the pool-ratio implied-probability model for
// binary prediction markets.
//
// An outcome's price equals its cumulative staked amount divided by the
// total staked across both outcomes:
//
//	p_yes = yesPool / (yesPool + noPool)
//
// This is deliberately not an order-book model: price is solely a function
// of cumulative same-direction stake, irrespective of the price each trade
// paid. The pools track total stake, not matched counter-trades.
//
// All pool sizes and prices use shopspring/decimal — never float64 for money.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	// MinPrice is the lowest allowed price (probability floor).
	// Keeps reconstructed series strictly plottable: no degenerate 0% lines.
	MinPrice = decimal.NewFromFloat(0.01)

	// MaxPrice is the highest allowed price (probability ceiling).
	MaxPrice = decimal.NewFromFloat(0.99)

	// Half is the implied price of an empty market.
	Half = decimal.NewFromFloat(0.5)

	one = decimal.NewFromInt(1)
)

// PriceScale is the number of decimal places for price rounding.
const PriceScale int32 = 8

// Price computes the implied YES probability from the two pool sizes.
// An empty market (both pools zero) defaults to 0.5. The result is exact
// in [0, 1]; callers wanting the plottable range apply Clamp.
func Price(yesPool, noPool decimal.Decimal) decimal.Decimal {
	total := yesPool.Add(noPool)
	if total.IsZero() {
		return Half
	}
	return yesPool.Div(total).Round(PriceScale)
}

// PriceNo returns the implied NO probability: 1 - Price.
func PriceNo(yesPool, noPool decimal.Decimal) decimal.Decimal {
	return one.Sub(Price(yesPool, noPool))
}

// Clamp bounds a price to [MinPrice, MaxPrice].
func Clamp(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(MinPrice) {
		return MinPrice
	}
	if p.GreaterThan(MaxPrice) {
		return MaxPrice
	}
	return p
}

// ClampedPair returns (clamp(yesPrice), 1 - clamp(yesPrice)).
// Deriving the NO leg from the clamped YES leg keeps the pair summing to
// exactly 1 while both stay inside [MinPrice, MaxPrice].
func ClampedPair(yesPrice decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	y := Clamp(yesPrice)
	return y, one.Sub(y)
}

// PoolPair returns the clamped (yes, no) implied prices for a pool state.
func PoolPair(yesPool, noPool decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return ClampedPair(Price(yesPool, noPool))
}
