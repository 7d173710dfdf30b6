// Package publisher shapes evaluator output into the response contracts of
// the dashboard endpoints. Formatting only; no market logic lives here.
package publisher

import (
	"math"
	"strings"
	"time"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
)

type ScanPayload struct {
	Exchanges []types.Quote `json:"exchanges"`
	Crypto    string        `json:"crypto"`
	Timestamp string        `json:"timestamp"`
}

type VerifiedPayload struct {
	Opportunity *types.Opportunity `json:"opportunity"`
	Crypto      string             `json:"crypto"`
	Timestamp   string             `json:"timestamp"`
	NextCheck   string             `json:"nextCheck"`
}

type P2PPayload struct {
	Opportunities []types.P2POpportunity `json:"opportunities"`
	Timestamp     string                 `json:"timestamp"`
	TestMode      bool                   `json:"testMode"`
	Description   string                 `json:"description"`
}

// Scan publishes the raw round. requestID is an opaque correlation value,
// not a real clock reading.
func Scan(round types.Round, requestID, currency string, rubPerUSD float64) ScanPayload {
	quotes := make([]types.Quote, len(round.Quotes))
	copy(quotes, round.Quotes)
	if isRUB(currency) {
		quotes = convertRUB(quotes, rubPerUSD)
	}
	for i := range quotes {
		quotes[i].Change24h = round2(quotes[i].Change24h)
	}
	return ScanPayload{
		Exchanges: quotes,
		Crypto:    round.Asset,
		Timestamp: requestID,
	}
}

// Verified publishes zero-or-one opportunity. A nil opportunity is the
// routine "nothing above threshold" outcome, not an error.
func Verified(opp *types.Opportunity, crypto string, now time.Time) VerifiedPayload {
	return VerifiedPayload{
		Opportunity: opp,
		Crypto:      crypto,
		Timestamp:   now.UTC().Format(time.RFC3339),
		NextCheck:   "через 1 час",
	}
}

func P2P(opps []types.P2POpportunity, now time.Time) P2PPayload {
	if opps == nil {
		opps = []types.P2POpportunity{}
	}
	if len(opps) > 10 {
		opps = opps[:10]
	}
	return P2PPayload{
		Opportunities: opps,
		Timestamp:     now.UTC().Format(time.RFC3339),
		TestMode:      true,
		Description:   "Тестовый режим: P2P фиат-криптовалютные связки с минимальным спредом 4%",
	}
}

func isRUB(currency string) bool {
	return strings.EqualFold(currency, "RUB")
}

// convertRUB applies the flat configured rate after collection. Only RUB is
// supported; any other currency passes through as USD.
func convertRUB(quotes []types.Quote, rate float64) []types.Quote {
	if rate <= 0 {
		return quotes
	}
	out := make([]types.Quote, len(quotes))
	copy(out, quotes)
	for i := range out {
		out[i].Price = round2(out[i].Price * rate)
	}
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
