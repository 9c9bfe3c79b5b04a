package source

import (
	"encoding/json"

	"github.com/openpredict/listing-engine/internal/model"
)

// Fallback returns a small fixed sample set used when the upstream fetch
// fails, so a fresh deployment still renders a populated listing instead
// of an error page. The records deliberately exercise the same field
// shapes real upstream payloads use.
func Fallback() []model.RawMarketRecord {
	return []model.RawMarketRecord{
		{
			ID:          "sample-btc-100k",
			Title:       "Will BTC close above $100k this year?",
			Category:    "Crypto",
			ClosingTime: json.RawMessage(`"2026-12-31T23:59:59Z"`),
			CreatedAt:   json.RawMessage(`"2026-01-01T00:00:00Z"`),
			YesPool:     json.RawMessage(`6200`),
			NoPool:      json.RawMessage(`3800`),
			TotalVolume: json.RawMessage(`1250000`),
		},
		{
			ID:           "sample-eth-flip",
			Title:        "Will ETH flip BTC by market cap?",
			Category:     "Crypto",
			ClosingTime:  json.RawMessage(`"2027-06-30T00:00:00Z"`),
			CreatedAt:    json.RawMessage(`"2026-02-15T00:00:00Z"`),
			YesPool:      json.RawMessage(`"900"`),
			NoPool:       json.RawMessage(`"4100"`),
			TotalVolume:  json.RawMessage(`"480000"`),
			BlockchainID: "0x4f2a9c",
		},
		{
			ID:            "sample-rate-cut",
			Title:         "Fed rate cut before September?",
			Category:      "Economics",
			ClosingTime:   json.RawMessage(`"2026-09-01T00:00:00Z"`),
			CreatedAt:     json.RawMessage(`"2026-03-01T00:00:00Z"`),
			VolumeDisplay: "2.1M",
		},
		{
			ID:          "sample-election",
			Title:       "Will turnout exceed 60%?",
			Category:    "Politics",
			ClosingTime: json.RawMessage(`"2026-11-03T00:00:00Z"`),
			CreatedAt:   json.RawMessage(`"2026-01-20T00:00:00Z"`),
			YesPool:     json.RawMessage(`150`),
			NoPool:      json.RawMessage(`350`),
			TotalVolume: json.RawMessage(`12000`),
		},
	}
}
