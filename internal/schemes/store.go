// Package schemes persists scanned arbitrage schemes so the dashboard can
// show recent history between scans.
package schemes

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

type Scheme struct {
	ID           int64     `json:"id"`
	Crypto       string    `json:"crypto"`
	BuyExchange  string    `json:"buyExchange"`
	SellExchange string    `json:"sellExchange"`
	BuyPrice     float64   `json:"buyPrice"`
	SellPrice    float64   `json:"sellPrice"`
	SpreadPct    float64   `json:"spreadPercent"`
	ProfitUSD    float64   `json:"profitUsd"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Store struct {
	db *sql.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS arbitrage_schemes (
		id SERIAL PRIMARY KEY,
		crypto VARCHAR(16) NOT NULL,
		buy_exchange VARCHAR(50) NOT NULL,
		sell_exchange VARCHAR(50) NOT NULL,
		buy_price DECIMAL(20,8) NOT NULL,
		sell_price DECIMAL(20,8) NOT NULL,
		spread_percent DECIMAL(10,4) NOT NULL,
		profit_usd DECIMAL(20,8) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

	_, err := s.db.Exec(query)
	return err
}

func (s *Store) Insert(ctx context.Context, sc Scheme) error {
	query := `
	INSERT INTO arbitrage_schemes (crypto, buy_exchange, sell_exchange, buy_price, sell_price, spread_percent, profit_usd)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		sc.Crypto, sc.BuyExchange, sc.SellExchange,
		sc.BuyPrice, sc.SellPrice, sc.SpreadPct, sc.ProfitUSD)
	return err
}

// Prune drops schemes older than maxAge or with a spread below minSpreadPct
// and reports how many rows went away.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration, minSpreadPct float64) (int64, error) {
	query := `
	DELETE FROM arbitrage_schemes
	WHERE created_at < $1 OR spread_percent < $2`

	res, err := s.db.ExecContext(ctx, query, time.Now().Add(-maxAge), minSpreadPct)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Scheme, error) {
	query := `
	SELECT id, crypto, buy_exchange, sell_exchange, buy_price, sell_price, spread_percent, profit_usd, created_at
	FROM arbitrage_schemes
	ORDER BY created_at DESC
	LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Scheme
	for rows.Next() {
		var sc Scheme
		if err := rows.Scan(&sc.ID, &sc.Crypto, &sc.BuyExchange, &sc.SellExchange,
			&sc.BuyPrice, &sc.SellPrice, &sc.SpreadPct, &sc.ProfitUSD, &sc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
