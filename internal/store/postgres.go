package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openpredict/listing-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All pool/volume values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const marketColumns = `id, category, question, slug,
	closing_time_ms, created_at_ms,
	yes_pool::TEXT, no_pool::TEXT, volume_value::TEXT,
	display_volume, is_hot, external_ref`

func (s *PostgresStore) ReplaceMarkets(ctx context.Context, markets []model.Market) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("replace markets: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM markets`); err != nil {
		return fmt.Errorf("replace markets: clear: %w", err)
	}

	for i := range markets {
		m := &markets[i]
		_, err := tx.Exec(ctx,
			`INSERT INTO markets (id, category, question, slug,
			     closing_time_ms, created_at_ms,
			     yes_pool, no_pool, volume_value,
			     display_volume, is_hot, external_ref, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10, $11, $12, $13)`,
			m.ID, m.Category, m.Question, m.Slug,
			m.ClosingTimeMs, m.CreatedAtMs,
			m.YesPool.String(), m.NoPool.String(), m.VolumeValue.String(),
			m.DisplayVolume, m.IsHot, m.ExternalRef, i,
		)
		if err != nil {
			return fmt.Errorf("replace markets: insert %s: %w", m.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketColumns+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("market %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get market %s: %w", id, err)
	}
	return m, nil
}

func (s *PostgresStore) GetMarketBySlug(ctx context.Context, slug string) (*model.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketColumns+` FROM markets WHERE slug = $1`, slug)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("market slug %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("get market by slug %s: %w", slug, err)
	}
	return m, nil
}

func (s *PostgresStore) ListMarkets(ctx context.Context) ([]model.Market, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+marketColumns+` FROM markets ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []model.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("list markets: %w", err)
		}
		markets = append(markets, *m)
	}
	return markets, rows.Err()
}

func (s *PostgresStore) UpdateMarketPools(ctx context.Context, id string, yesPool, noPool, volume decimal.Decimal) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE markets
		 SET yes_pool = $2::NUMERIC, no_pool = $3::NUMERIC, volume_value = $4::NUMERIC
		 WHERE id = $1`,
		id, yesPool.String(), noPool.String(), volume.String(),
	)
	if err != nil {
		return fmt.Errorf("update market pools %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("market %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) InsertTrade(ctx context.Context, trade *model.Trade) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trades (id, market_id, side, amount, timestamp_ms)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5)`,
		trade.ID, trade.MarketID, trade.Side, trade.Amount.String(), trade.TimestampMs,
	)
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", trade.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetTradesByMarket(ctx context.Context, marketID string) ([]model.Trade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, market_id, side, amount::TEXT, timestamp_ms
		 FROM trades WHERE market_id = $1
		 ORDER BY inserted_at ASC`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		var amount string
		if err := rows.Scan(&t.ID, &t.MarketID, &t.Side, &amount, &t.TimestampMs); err != nil {
			return nil, fmt.Errorf("get trades for %s: %w", marketID, err)
		}
		t.Amount, _ = decimal.NewFromString(amount)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMarket(row rowScanner) (*model.Market, error) {
	var m model.Market
	var yesPool, noPool, volume string

	err := row.Scan(&m.ID, &m.Category, &m.Question, &m.Slug,
		&m.ClosingTimeMs, &m.CreatedAtMs,
		&yesPool, &noPool, &volume,
		&m.DisplayVolume, &m.IsHot, &m.ExternalRef)
	if err != nil {
		return nil, err
	}

	m.YesPool, _ = decimal.NewFromString(yesPool)
	m.NoPool, _ = decimal.NewFromString(noPool)
	m.VolumeValue, _ = decimal.NewFromString(volume)

	return &m, nil
}
