// Package collector fans one asset out to every configured venue adapter
// and keeps whatever comes back in time. Venue failures never fail a round;
// an empty round is a normal outcome.
package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	imetrics "github.com/pr-poehali-dev/crypto-price-comparator/internal/metrics"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/venues"
)

type Collector struct {
	adapters    []venues.Adapter
	callTimeout time.Duration
	roundBudget time.Duration
	workers     int64
	log         *zap.Logger
}

func New(adapters []venues.Adapter, callTimeout, roundBudget time.Duration, workers int, log *zap.Logger) *Collector {
	if workers <= 0 {
		workers = 8
	}
	return &Collector{
		adapters:    adapters,
		callTimeout: callTimeout,
		roundBudget: roundBudget,
		workers:     int64(workers),
		log:         log,
	}
}

// Collect runs one round: every adapter in parallel under the worker bound,
// each call racing its own timeout inside the overall round budget. A venue
// still in flight when the budget expires is cancelled and its result
// dropped. No retries here; the caller re-invokes if it wants another try.
func (c *Collector) Collect(ctx context.Context, asset string) types.Round {
	imetrics.RoundsTotal.Inc()

	roundCtx, cancel := context.WithTimeout(ctx, c.roundBudget)
	defer cancel()

	sem := semaphore.NewWeighted(c.workers)
	var (
		mu     sync.Mutex
		quotes []types.Quote
		wg     sync.WaitGroup
	)

	for _, a := range c.adapters {
		if !a.Supports(asset) {
			continue
		}
		wg.Add(1)
		go func(a venues.Adapter) {
			defer wg.Done()
			if err := sem.Acquire(roundCtx, 1); err != nil {
				// Round budget ran out before this venue got a slot.
				return
			}
			defer sem.Release(1)

			callCtx, cancelCall := context.WithTimeout(roundCtx, c.callTimeout)
			defer cancelCall()

			start := time.Now()
			q, err := a.FetchQuote(callCtx, asset)
			imetrics.VenueFetchSeconds.Observe(time.Since(start).Seconds())
			if err != nil {
				imetrics.VenueErrors.WithLabelValues(a.Name()).Inc()
				if !errors.Is(err, venues.ErrUnsupportedAsset) {
					c.log.Debug("venue fetch failed",
						zap.String("venue", a.Name()),
						zap.String("asset", asset),
						zap.Error(err))
				}
				return
			}

			mu.Lock()
			quotes = append(quotes, q)
			mu.Unlock()
		}(a)
	}
	wg.Wait()

	imetrics.RoundQuotes.Set(float64(len(quotes)))
	c.log.Debug("round collected",
		zap.String("asset", asset),
		zap.Int("quotes", len(quotes)),
		zap.Int("venues", len(c.adapters)))

	return types.Round{Asset: asset, Quotes: quotes, Ts: time.Now()}
}
