package types

import "time"

// Quote is one venue's market snapshot for a single asset. All spot venues
// quote against USDT, so prices are USD-equivalent within a round.
type Quote struct {
	Venue      string  `json:"name"`
	Price      float64 `json:"price"`
	FeePercent float64 `json:"fee"`
	Volume     float64 `json:"volume"`
	Change24h  float64 `json:"change24h"`
	SourceURL  string  `json:"url,omitempty"`
	DataSource string  `json:"source,omitempty"`
}

// Round is the set of quotes gathered for one asset in one request.
// It may be empty: a round where every venue failed is still a valid round.
type Round struct {
	Asset  string
	Quotes []Quote
	Ts     time.Time
}

// Opportunity is a buy-low/sell-high pairing between two quotes of one round.
// BuyVenue and SellVenue are always distinct.
type Opportunity struct {
	BuyVenue     string    `json:"buyExchange"`
	SellVenue    string    `json:"sellExchange"`
	BuyPrice     float64   `json:"buyPrice"`
	SellPrice    float64   `json:"sellPrice"`
	SpreadPct    float64   `json:"spread"`
	BuyURL       string    `json:"buyUrl,omitempty"`
	SellURL      string    `json:"sellUrl,omitempty"`
	Verified     bool      `json:"verified"`
	LastVerified time.Time `json:"lastVerified"`
	Sources      string    `json:"sources,omitempty"`
	Confidence   string    `json:"confidence,omitempty"`
}

// P2POpportunity is a fiat on/off-ramp pairing between two P2P boards.
type P2POpportunity struct {
	Type         string  `json:"type"`
	BuyPlatform  string  `json:"buyPlatform"`
	SellPlatform string  `json:"sellPlatform"`
	BuyPrice     float64 `json:"buyPrice"`
	SellPrice    float64 `json:"sellPrice"`
	SpreadPct    float64 `json:"spread"`
	Currency     string  `json:"currency"`
	Crypto       string  `json:"crypto"`
	Verified     bool    `json:"verified"`
	Method       string  `json:"method"`
	MinAmount    float64 `json:"minAmount"`
	MaxAmount    float64 `json:"maxAmount"`
}
