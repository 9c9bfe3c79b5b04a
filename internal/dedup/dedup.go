// Package dedup collapses overlapping market records into a canonical set.
//
// Records gathered from multiple upstream sources frequently describe the
// same real-world market. Identity is detected with a composite key of the
// normalized question and the closing timestamp; conflicts are resolved by
// a deterministic three-tier policy so the surviving set does not depend on
// source order. Detection is best-effort, not cryptographically guaranteed.
package dedup

import (
	"strconv"
	"strings"

	"github.com/openpredict/listing-engine/internal/model"
)

// Key returns the composite identity key for a market:
// lowercase(trim(question)) + "|" + closingTimeMillis.
// Two records with the same key are the same underlying market.
func Key(m model.Market) string {
	return strings.ToLower(strings.TrimSpace(m.Question)) + "|" +
		strconv.FormatInt(m.ClosingTimeMs, 10)
}

// Dedupe folds markets into a survivor map keyed on identity and returns
// one record per group. The surviving record of each group keeps the
// first-seen position of that group. Idempotent: Dedupe(Dedupe(x))
// yields the same set as Dedupe(x).
func Dedupe(markets []model.Market) []model.Market {
	out := make([]model.Market, 0, len(markets))
	index := make(map[string]int, len(markets)) // identity key → position in out

	for _, m := range markets {
		key := Key(m)
		at, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, m)
			continue
		}
		if challengerWins(out[at], m) {
			out[at] = m
		}
	}

	return out
}

// challengerWins decides whether an incoming record replaces the current
// survivor of its identity group. The three tiers apply in strict order:
//
//  1. An external (on-chain) reference always wins over its absence —
//     linkage to an authoritative source dominates everything below.
//  2. Strictly greater volume wins.
//  3. Later creation time wins.
//
// Any remaining tie keeps the incumbent (first-seen wins). Reordering
// these checks changes observable output; the order is the policy.
func challengerWins(incumbent, challenger model.Market) bool {
	if challenger.ExternalRef != "" && incumbent.ExternalRef == "" {
		return true
	}
	if incumbent.ExternalRef != "" && challenger.ExternalRef == "" {
		return false
	}

	if challenger.VolumeValue.GreaterThan(incumbent.VolumeValue) {
		return true
	}
	if incumbent.VolumeValue.GreaterThan(challenger.VolumeValue) {
		return false
	}

	return challenger.CreatedAtMs > incumbent.CreatedAtMs
}
