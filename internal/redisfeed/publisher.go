// Package redisfeed pushes fresh scan results to Redis so other consumers
// (bots, alerting) see schemes without polling Postgres.
package redisfeed

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/config"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
)

type Publisher struct {
	rdb      *redis.Client
	stream   string
	active   string
	schemeNS string
}

func NewPublisher(cfg *config.Config) *Publisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})
	return &Publisher{
		rdb:      rdb,
		stream:   cfg.Redis.Stream,
		active:   cfg.Redis.Active,
		schemeNS: cfg.Redis.SchemeNS,
	}
}

// PublishOpportunity appends the opportunity to the stream and refreshes
// the per-crypto latest-scheme hash plus the active-crypto index.
func (p *Publisher) PublishOpportunity(ctx context.Context, crypto string, opp types.Opportunity, tsMs int64) error {
	fields := map[string]interface{}{
		"crypto":        crypto,
		"buy_exchange":  opp.BuyVenue,
		"sell_exchange": opp.SellVenue,
		"buy_price":     opp.BuyPrice,
		"sell_price":    opp.SellPrice,
		"spread_pct":    opp.SpreadPct,
		"ts_ms":         tsMs,
	}

	if err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return err
	}

	if err := p.rdb.HSet(ctx, p.schemeNS+crypto, fields).Err(); err != nil {
		return err
	}
	return p.rdb.ZAdd(ctx, p.active, redis.Z{
		Score: float64(tsMs), Member: crypto,
	}).Err()
}

func (p *Publisher) Close() error { return p.rdb.Close() }
