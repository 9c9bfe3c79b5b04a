// Package source fetches raw market records from the upstream listing API.
//
// The client only transports: it decodes the upstream payload into
// model.RawMarketRecord values and leaves every field untouched for the
// ingest package. When the upstream is unreachable the caller substitutes
// the fixed sample set from Fallback, so the engine's input contract is
// always satisfiable.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openpredict/listing-engine/internal/model"
)

// Client is the REST client for the upstream market listing API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new upstream client.
//
// baseURL is the API root, e.g. "https://api.example.com/v2".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchRecords returns the upstream's full raw market list.
func (c *Client) FetchRecords(ctx context.Context) ([]model.RawMarketRecord, error) {
	body, err := c.doGet(ctx, "/markets")
	if err != nil {
		return nil, fmt.Errorf("source: fetch records: %w", err)
	}

	var records []model.RawMarketRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("source: decode records: %w", err)
	}

	return records, nil
}

// doGet sends an unauthenticated GET request to the upstream API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 32<<20))
}
