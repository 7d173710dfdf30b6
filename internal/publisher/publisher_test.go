package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
)

func TestScan_EmptyRoundMarshalsToEmptyArray(t *testing.T) {
	p := Scan(types.Round{Asset: "BTC"}, "req-1", "USD", 95)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"exchanges":[]`)
	assert.Contains(t, string(b), `"timestamp":"req-1"`)
}

func TestScan_RUBConversion(t *testing.T) {
	round := types.Round{
		Asset:  "BTC",
		Quotes: []types.Quote{{Venue: "Binance", Price: 100, Change24h: 2.379}},
	}
	p := Scan(round, "req-2", "rub", 95)

	require.Len(t, p.Exchanges, 1)
	assert.Equal(t, 9500.0, p.Exchanges[0].Price)
	assert.Equal(t, 2.38, p.Exchanges[0].Change24h)

	// The original round stays in USD.
	assert.Equal(t, 100.0, round.Quotes[0].Price)
}

func TestScan_UnknownCurrencyPassesThrough(t *testing.T) {
	round := types.Round{
		Asset:  "BTC",
		Quotes: []types.Quote{{Venue: "Binance", Price: 100}},
	}
	p := Scan(round, "req-3", "EUR", 95)
	assert.Equal(t, 100.0, p.Exchanges[0].Price)
}

func TestVerified_NullOpportunity(t *testing.T) {
	p := Verified(nil, "BTC", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"opportunity":null`)
	assert.Contains(t, string(b), `"timestamp":"2026-01-02T03:04:05Z"`)
	assert.Contains(t, string(b), `"nextCheck"`)
}

func TestVerified_RoundTrip(t *testing.T) {
	opp := &types.Opportunity{
		BuyVenue:  "Binance",
		SellVenue: "OKX",
		BuyPrice:  100,
		SellPrice: 110,
		SpreadPct: 9.69,
	}
	p := Verified(opp, "BTC", time.Now())

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var back VerifiedPayload
	require.NoError(t, json.Unmarshal(b, &back))
	require.NotNil(t, back.Opportunity)
	assert.Equal(t, "Binance", back.Opportunity.BuyVenue)
	assert.Equal(t, "OKX", back.Opportunity.SellVenue)
	assert.Equal(t, 9.69, back.Opportunity.SpreadPct)
}

func TestP2P_CapsAtTen(t *testing.T) {
	opps := make([]types.P2POpportunity, 14)
	p := P2P(opps, time.Now())
	assert.Len(t, p.Opportunities, 10)
	assert.True(t, p.TestMode)
}

func TestP2P_NilBecomesEmptyArray(t *testing.T) {
	p := P2P(nil, time.Now())
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"opportunities":[]`)
}
