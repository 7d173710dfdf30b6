package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/config"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
)

type fakeCollector struct {
	round types.Round
}

func (f *fakeCollector) Collect(_ context.Context, asset string) types.Round {
	r := f.round
	r.Asset = asset
	return r
}

func testConfig() *config.Config {
	cfg := &config.Config{Listen: ":0", AdminToken: "s3cret"}
	cfg.Rates.RubPerUSD = 95
	cfg.Cron.SchemesLimit = 50
	return cfg
}

func newTestServer(round types.Round) *Server {
	return New(testConfig(), &fakeCollector{round: round}, nil, nil, nil, zap.NewNop())
}

func do(s *Server, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestOptionsPreflight(t *testing.T) {
	s := newTestServer(types.Round{})
	rec := do(s, http.MethodOptions, "/prices", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(types.Round{})
	rec := do(s, http.MethodPost, "/prices", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(types.Round{})
	rec := do(s, http.MethodGet, "/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Body.String(), "error")
}

func TestGetPrices(t *testing.T) {
	s := newTestServer(types.Round{Quotes: []types.Quote{
		{Venue: "Binance", Price: 100, FeePercent: 0.1},
		{Venue: "OKX", Price: 101, FeePercent: 0.08},
	}})
	rec := do(s, http.MethodGet, "/prices?crypto=eth", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body struct {
		Exchanges []types.Quote `json:"exchanges"`
		Crypto    string        `json:"crypto"`
		Timestamp string        `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ETH", body.Crypto, "asset symbol is upper-cased")
	assert.Len(t, body.Exchanges, 2)
	assert.NotEmpty(t, body.Timestamp)
}

func TestGetPrices_RUB(t *testing.T) {
	s := newTestServer(types.Round{Quotes: []types.Quote{{Venue: "Binance", Price: 100}}})
	rec := do(s, http.MethodGet, "/prices?currency=RUB", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Exchanges []types.Quote `json:"exchanges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Exchanges, 1)
	assert.Equal(t, 9500.0, body.Exchanges[0].Price)
}

func TestGetVerified_ThinRound(t *testing.T) {
	s := newTestServer(types.Round{Quotes: []types.Quote{{Venue: "Binance", Price: 100}}})
	rec := do(s, http.MethodGet, "/verified", nil)

	require.Equal(t, http.StatusOK, rec.Code, "no opportunity is a routine outcome, not an error")
	assert.Contains(t, rec.Body.String(), `"opportunity":null`)
	assert.Contains(t, rec.Body.String(), `"crypto":"BTC"`)
}

func TestGetVerified_Found(t *testing.T) {
	s := newTestServer(types.Round{Quotes: []types.Quote{
		{Venue: "Binance", Price: 100, FeePercent: 0.1},
		{Venue: "OKX", Price: 110, FeePercent: 0.1},
		{Venue: "Gate.io", Price: 101, FeePercent: 0.2},
	}})
	rec := do(s, http.MethodGet, "/verified?crypto=btc", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Opportunity *types.Opportunity `json:"opportunity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Opportunity)
	assert.Equal(t, "Binance", body.Opportunity.BuyVenue)
	assert.Equal(t, "OKX", body.Opportunity.SellVenue)
	assert.Equal(t, "Medium", body.Opportunity.Confidence)
}

func TestGetPrices_BadSymbol(t *testing.T) {
	s := newTestServer(types.Round{})
	rec := do(s, http.MethodGet, "/prices?crypto=b%24d", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestGetSchemes_StoreDisabled(t *testing.T) {
	s := newTestServer(types.Round{})
	rec := do(s, http.MethodGet, "/schemes", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSchemesUpdate_AuthGate(t *testing.T) {
	s := newTestServer(types.Round{})

	rec := do(s, http.MethodPost, "/schemes/update", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodPost, "/schemes/update", map[string]string{"X-Admin-Auth": "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Correct token but no store configured.
	rec = do(s, http.MethodPost, "/schemes/update", map[string]string{"X-Admin-Auth": "s3cret"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(types.Round{})
	rec := do(s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
