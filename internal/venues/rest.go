package venues

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
)

const userAgent = "Mozilla/5.0"

// ticker is the normalized result of one venue response.
type ticker struct {
	Price     float64
	Volume    float64
	Change24h float64
}

// extractFunc parses a venue-specific response body into a ticker.
// Missing fields or unparseable numbers must come back as errors, not zeros.
type extractFunc func(body []byte) (ticker, error)

// restVenue is one spot exchange behind a public REST ticker endpoint.
// Venues differ only in URL shape, symbol naming and response schema, so a
// single implementation is parameterized by {symbol map, url template,
// extractor} instead of one hand-written fetcher per exchange.
type restVenue struct {
	name    string
	siteURL string
	feePct  float64
	symbols map[string]string
	urlFor  func(symbol string) string
	extract extractFunc
	http    *http.Client
}

func newRESTVenue(name, siteURL string, feePct float64, symbols map[string]string, urlFor func(string) string, extract extractFunc, timeout time.Duration) *restVenue {
	return &restVenue{
		name:    name,
		siteURL: siteURL,
		feePct:  feePct,
		symbols: symbols,
		urlFor:  urlFor,
		extract: extract,
		http:    &http.Client{Timeout: timeout},
	}
}

func (v *restVenue) Name() string { return v.name }

func (v *restVenue) Supports(asset string) bool {
	_, ok := v.symbols[asset]
	return ok
}

// FetchQuote performs exactly one GET against the venue. Per-call deadline
// enforcement belongs to the caller's ctx; v.http.Timeout is a backstop.
func (v *restVenue) FetchQuote(ctx context.Context, asset string) (types.Quote, error) {
	symbol, ok := v.symbols[asset]
	if !ok {
		return types.Quote{}, ErrUnsupportedAsset
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.urlFor(symbol), nil)
	if err != nil {
		return types.Quote{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := v.http.Do(req)
	if err != nil {
		return types.Quote{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.Quote{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return types.Quote{}, fmt.Errorf("%s ticker %d: %s", v.name, resp.StatusCode, truncate(string(body), 160))
	}

	t, err := v.extract(body)
	if err != nil {
		return types.Quote{}, fmt.Errorf("%s ticker: %w", v.name, err)
	}
	if t.Price <= 0 {
		return types.Quote{}, fmt.Errorf("%s ticker: non-positive price", v.name)
	}

	return types.Quote{
		Venue:      v.name,
		Price:      t.Price,
		FeePercent: v.feePct,
		Volume:     t.Volume,
		Change24h:  t.Change24h,
		SourceURL:  v.siteURL,
		DataSource: v.name + " public API",
	}, nil
}

func parseF(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(s, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
