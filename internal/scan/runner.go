// Package scan runs the scheduled sweep: collect a round per crypto, apply
// the scan policy, persist what passes and publish it to the feed. The same
// runner backs the cron binary and the admin-triggered update endpoint.
package scan

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/evaluator"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/schemes"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
)

type roundCollector interface {
	Collect(ctx context.Context, asset string) types.Round
}

type feed interface {
	PublishOpportunity(ctx context.Context, crypto string, opp types.Opportunity, tsMs int64) error
}

type schemeStore interface {
	Insert(ctx context.Context, sc schemes.Scheme) error
	Prune(ctx context.Context, maxAge time.Duration, minSpreadPct float64) (int64, error)
}

// Summary is what one sweep reports back.
type Summary struct {
	NewSchemes     int      `json:"new_schemes"`
	DeletedSchemes int64    `json:"deleted_schemes"`
	Errors         []string `json:"errors"`
	Timestamp      string   `json:"timestamp"`
}

type Runner struct {
	collector  roundCollector
	store      schemeStore
	feed       feed // nil disables publishing
	maxAge     time.Duration
	minKeepPct float64
	log        *zap.Logger
}

func NewRunner(col roundCollector, store schemeStore, f feed, maxAge time.Duration, minKeepPct float64, log *zap.Logger) *Runner {
	return &Runner{
		collector:  col,
		store:      store,
		feed:       f,
		maxAge:     maxAge,
		minKeepPct: minKeepPct,
		log:        log,
	}
}

// Sweep collects every crypto once, stores passing schemes and prunes stale
// rows. Per-crypto failures are recorded in the summary, never fatal.
func (r *Runner) Sweep(ctx context.Context, cryptos []string) (Summary, error) {
	sum := Summary{Errors: []string{}}

	for _, crypto := range cryptos {
		round := r.collector.Collect(ctx, crypto)
		opp, ok := evaluator.Best(round, evaluator.Scan)
		if !ok {
			r.log.Debug("scan: no scheme", zap.String("crypto", crypto), zap.Int("quotes", len(round.Quotes)))
			continue
		}

		sc := schemes.Scheme{
			Crypto:       crypto,
			BuyExchange:  opp.BuyVenue,
			SellExchange: opp.SellVenue,
			BuyPrice:     opp.BuyPrice,
			SellPrice:    opp.SellPrice,
			SpreadPct:    opp.SpreadPct,
			ProfitUSD:    opp.SellPrice - opp.BuyPrice,
		}
		if err := r.store.Insert(ctx, sc); err != nil {
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", crypto, err))
			r.log.Warn("scan: insert failed", zap.String("crypto", crypto), zap.Error(err))
			continue
		}
		sum.NewSchemes++
		r.log.Info("scan: scheme added",
			zap.String("crypto", crypto),
			zap.String("buy", opp.BuyVenue),
			zap.String("sell", opp.SellVenue),
			zap.Float64("spread_pct", opp.SpreadPct))

		if r.feed != nil {
			if err := r.feed.PublishOpportunity(ctx, crypto, opp, time.Now().UnixMilli()); err != nil {
				r.log.Warn("scan: feed publish failed", zap.String("crypto", crypto), zap.Error(err))
			}
		}
	}

	deleted, err := r.store.Prune(ctx, r.maxAge, r.minKeepPct)
	if err != nil {
		return sum, fmt.Errorf("prune: %w", err)
	}
	sum.DeletedSchemes = deleted
	sum.Timestamp = time.Now().UTC().Format(time.RFC3339)

	r.log.Info("scan: sweep done",
		zap.Int("new", sum.NewSchemes),
		zap.Int64("deleted", deleted),
		zap.Int("errors", len(sum.Errors)))
	return sum, nil
}
