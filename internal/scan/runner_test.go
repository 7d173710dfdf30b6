package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/schemes"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
)

type fakeRounds struct {
	rounds map[string]types.Round
}

func (f *fakeRounds) Collect(_ context.Context, asset string) types.Round {
	r := f.rounds[asset]
	r.Asset = asset
	return r
}

type fakeStore struct {
	inserted  []schemes.Scheme
	insertErr map[string]error
	pruned    int64
	pruneErr  error
}

func (f *fakeStore) Insert(_ context.Context, sc schemes.Scheme) error {
	if err := f.insertErr[sc.Crypto]; err != nil {
		return err
	}
	f.inserted = append(f.inserted, sc)
	return nil
}

func (f *fakeStore) Prune(_ context.Context, _ time.Duration, _ float64) (int64, error) {
	return f.pruned, f.pruneErr
}

type fakeFeed struct {
	published []string
	err       error
}

func (f *fakeFeed) PublishOpportunity(_ context.Context, crypto string, _ types.Opportunity, _ int64) error {
	f.published = append(f.published, crypto)
	return f.err
}

func wideRound(low, high float64) types.Round {
	return types.Round{Quotes: []types.Quote{
		{Venue: "Binance", Price: low},
		{Venue: "OKX", Price: high},
	}}
}

func newTestRunner(col roundCollector, store schemeStore, f feed) *Runner {
	return NewRunner(col, store, f, 24*time.Hour, 0.05, zap.NewNop())
}

func TestSweep_StoresPassingSchemes(t *testing.T) {
	col := &fakeRounds{rounds: map[string]types.Round{"BTC": wideRound(100, 120)}}
	store := &fakeStore{pruned: 3}

	sum, err := newTestRunner(col, store, nil).Sweep(context.Background(), []string{"BTC"})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.NewSchemes)
	assert.Equal(t, int64(3), sum.DeletedSchemes)
	assert.Empty(t, sum.Errors)
	assert.NotEmpty(t, sum.Timestamp)

	require.Len(t, store.inserted, 1)
	sc := store.inserted[0]
	assert.Equal(t, "BTC", sc.Crypto)
	assert.Equal(t, "Binance", sc.BuyExchange)
	assert.Equal(t, "OKX", sc.SellExchange)
	assert.Equal(t, 20.0, sc.ProfitUSD)
}

func TestSweep_ThinRoundSkipped(t *testing.T) {
	col := &fakeRounds{rounds: map[string]types.Round{
		"BTC": {Quotes: []types.Quote{{Venue: "Binance", Price: 100}}},
	}}
	store := &fakeStore{}

	sum, err := newTestRunner(col, store, nil).Sweep(context.Background(), []string{"BTC"})
	require.NoError(t, err)

	assert.Zero(t, sum.NewSchemes)
	assert.Empty(t, sum.Errors)
	assert.Empty(t, store.inserted)
}

func TestSweep_InsertFailureDoesNotAbort(t *testing.T) {
	col := &fakeRounds{rounds: map[string]types.Round{
		"BTC": wideRound(100, 110),
		"ETH": wideRound(10, 12),
	}}
	store := &fakeStore{insertErr: map[string]error{"BTC": errors.New("db down")}}

	sum, err := newTestRunner(col, store, nil).Sweep(context.Background(), []string{"BTC", "ETH"})
	require.NoError(t, err, "a per-crypto insert failure is recorded, not fatal")

	assert.Equal(t, 1, sum.NewSchemes)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "BTC")
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "ETH", store.inserted[0].Crypto)
}

func TestSweep_FeedFailureNonFatal(t *testing.T) {
	col := &fakeRounds{rounds: map[string]types.Round{"BTC": wideRound(100, 110)}}
	store := &fakeStore{}
	f := &fakeFeed{err: errors.New("redis gone")}

	sum, err := newTestRunner(col, store, f).Sweep(context.Background(), []string{"BTC"})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.NewSchemes)
	assert.Empty(t, sum.Errors)
	assert.Equal(t, []string{"BTC"}, f.published)
}

func TestSweep_PruneFailure(t *testing.T) {
	col := &fakeRounds{rounds: map[string]types.Round{"BTC": wideRound(100, 110)}}
	store := &fakeStore{pruneErr: errors.New("prune failed")}

	sum, err := newTestRunner(col, store, nil).Sweep(context.Background(), []string{"BTC"})
	assert.Error(t, err)
	assert.Equal(t, 1, sum.NewSchemes, "inserts done before the prune still count")
}
