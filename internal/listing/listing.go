// Package listing produces the filtered, ordered market list a user sees.
//
// The pipeline runs in strict order: category filter, free-text filter, a
// mode-dependent comparator applied through a stable sort, then a
// mode-dependent post-filter. View never mutates its input; callers own the
// returned slice.
package listing

import (
	"sort"
	"strings"

	"github.com/openpredict/listing-engine/internal/model"
)

// Mode selects both the comparator and the post-hoc inclusion filter.
type Mode string

// The complete, closed mode vocabulary. Anything else is treated as a
// no-op passthrough (no sort, no post-filter) so the UI stays resilient
// to mode additions it does not know yet.
const (
	ModeAll    Mode = "all"
	ModeHot    Mode = "hot"
	ModeLive   Mode = "live"
	ModeEnded  Mode = "ended"
	ModeTime   Mode = "time"
	ModeVolume Mode = "volume"
)

// CategoryAll matches every category in the category filter.
const CategoryAll = "all"

// View filters and orders the canonical set for rendering.
//
// referenceNow is epoch millis captured once per render cycle by the
// caller and threaded through every expiry comparison. Re-reading the
// clock mid-sort would make the comparator non-transitive.
func View(markets []model.Market, category, query string, mode Mode, referenceNow int64) []model.Market {
	out := make([]model.Market, 0, len(markets))

	category = strings.ToLower(strings.TrimSpace(category))
	query = strings.ToLower(strings.TrimSpace(query))

	for _, m := range markets {
		if category != "" && category != CategoryAll && !strings.EqualFold(m.Category, category) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(m.Question), query) {
			continue
		}
		out = append(out, m)
	}

	if less := comparator(mode, referenceNow); less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i], out[j])
		})
	}

	if keep := postFilter(mode, referenceNow); keep != nil {
		kept := out[:0]
		for _, m := range out {
			if keep(m) {
				kept = append(kept, m)
			}
		}
		out = kept
	}

	return out
}

// expired reports whether a market's closing time is strictly in the past
// relative to the captured reference instant.
func expired(m model.Market, referenceNow int64) bool {
	return m.ClosingTimeMs < referenceNow
}

// comparator returns the strict-weak ordering for a mode, or nil when the
// mode carries no ordering (unknown modes).
func comparator(mode Mode, referenceNow int64) func(a, b model.Market) bool {
	switch mode {
	case ModeAll:
		// Non-expired before expired; hot first among non-expired only;
		// then ascending closing time. The same ascending comparison is
		// reused for the expired group, which surfaces the oldest expired
		// market first rather than the most recently expired one.
		return func(a, b model.Market) bool {
			ae, be := expired(a, referenceNow), expired(b, referenceNow)
			if ae != be {
				return !ae
			}
			if !ae && a.IsHot != b.IsHot {
				return a.IsHot
			}
			return a.ClosingTimeMs < b.ClosingTimeMs
		}
	case ModeHot:
		return func(a, b model.Market) bool {
			if a.IsHot != b.IsHot {
				return a.IsHot
			}
			return a.VolumeValue.GreaterThan(b.VolumeValue)
		}
	case ModeLive:
		return func(a, b model.Market) bool {
			return a.ClosingTimeMs < b.ClosingTimeMs
		}
	case ModeEnded, ModeTime:
		return func(a, b model.Market) bool {
			return a.ClosingTimeMs > b.ClosingTimeMs
		}
	case ModeVolume:
		return func(a, b model.Market) bool {
			return a.VolumeValue.GreaterThan(b.VolumeValue)
		}
	default:
		return nil
	}
}

// postFilter returns the mode's inclusion predicate applied after sorting,
// or nil when the mode removes nothing. This is a second, independent pass
// on top of the category/text filters, not a replacement for them.
func postFilter(mode Mode, referenceNow int64) func(m model.Market) bool {
	switch mode {
	case ModeHot:
		return func(m model.Market) bool {
			return m.IsHot && !expired(m, referenceNow)
		}
	case ModeLive:
		return func(m model.Market) bool {
			return !expired(m, referenceNow)
		}
	case ModeEnded:
		return func(m model.Market) bool {
			return expired(m, referenceNow)
		}
	default:
		return nil
	}
}
