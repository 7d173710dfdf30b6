package venues

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// listedAssets is the static support table shared by the USDT spot venues.
// Venues with a different listing set declare their own map.
var listedAssets = []string{"BTC", "ETH", "SOL", "XRP", "BNB", "ADA", "DOGE", "AVAX", "DOT", "MATIC", "LINK"}

func usdtSymbols(sep string, lower bool) map[string]string {
	m := make(map[string]string, len(listedAssets))
	for _, a := range listedAssets {
		s := a + sep + "USDT"
		if lower {
			s = strings.ToLower(s)
		}
		m[a] = s
	}
	return m
}

// Registry returns every known spot venue. baseURL overrides exist for
// tests; pass "" to hit the real exchanges.
func Registry(timeout time.Duration) []Adapter {
	return []Adapter{
		Binance("", timeout),
		Coinbase("", timeout),
		Kraken("", timeout),
		Bybit("", timeout),
		OKX("", timeout),
		KuCoin("", timeout),
		Gate("", timeout),
		HTX("", timeout),
		MEXC("", timeout),
	}
}

func orDefault(base, def string) string {
	if base == "" {
		return def
	}
	return strings.TrimRight(base, "/")
}

func Binance(baseURL string, timeout time.Duration) Adapter {
	base := orDefault(baseURL, "https://api.binance.com")
	return newRESTVenue("Binance", "https://www.binance.com", 0.1,
		usdtSymbols("", false),
		func(sym string) string { return base + "/api/v3/ticker/24hr?symbol=" + sym },
		extract24hr, timeout)
}

func MEXC(baseURL string, timeout time.Duration) Adapter {
	base := orDefault(baseURL, "https://api.mexc.com")
	return newRESTVenue("MEXC", "https://www.mexc.com", 0.2,
		usdtSymbols("", false),
		func(sym string) string { return base + "/api/v3/ticker/24hr?symbol=" + sym },
		extract24hr, timeout)
}

// extract24hr covers the Binance-style 24hr ticker (Binance, MEXC).
func extract24hr(body []byte) (ticker, error) {
	var r struct {
		LastPrice          string `json:"lastPrice"`
		Volume             string `json:"volume"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return ticker{}, err
	}
	price, err := parseF(r.LastPrice)
	if err != nil {
		return ticker{}, fmt.Errorf("lastPrice: %w", err)
	}
	vol, _ := parseF(r.Volume)
	chg, _ := parseF(r.PriceChangePercent)
	return ticker{Price: price, Volume: vol, Change24h: chg}, nil
}

func Bybit(baseURL string, timeout time.Duration) Adapter {
	base := orDefault(baseURL, "https://api.bybit.com")
	return newRESTVenue("Bybit", "https://www.bybit.com", 0.1,
		usdtSymbols("", false),
		func(sym string) string { return base + "/v5/market/tickers?category=spot&symbol=" + sym },
		func(body []byte) (ticker, error) {
			var r struct {
				Result struct {
					List []struct {
						LastPrice string `json:"lastPrice"`
						Volume24h string `json:"volume24h"`
					} `json:"list"`
				} `json:"result"`
			}
			if err := json.Unmarshal(body, &r); err != nil {
				return ticker{}, err
			}
			if len(r.Result.List) == 0 {
				return ticker{}, fmt.Errorf("empty result list")
			}
			price, err := parseF(r.Result.List[0].LastPrice)
			if err != nil {
				return ticker{}, fmt.Errorf("lastPrice: %w", err)
			}
			vol, _ := parseF(r.Result.List[0].Volume24h)
			return ticker{Price: price, Volume: vol}, nil
		}, timeout)
}

func OKX(baseURL string, timeout time.Duration) Adapter {
	base := orDefault(baseURL, "https://www.okx.com")
	return newRESTVenue("OKX", "https://www.okx.com", 0.08,
		usdtSymbols("-", false),
		func(sym string) string { return base + "/api/v5/market/ticker?instId=" + sym },
		func(body []byte) (ticker, error) {
			var r struct {
				Data []struct {
					Last   string `json:"last"`
					Vol24h string `json:"vol24h"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &r); err != nil {
				return ticker{}, err
			}
			if len(r.Data) == 0 {
				return ticker{}, fmt.Errorf("empty data")
			}
			price, err := parseF(r.Data[0].Last)
			if err != nil {
				return ticker{}, fmt.Errorf("last: %w", err)
			}
			vol, _ := parseF(r.Data[0].Vol24h)
			return ticker{Price: price, Volume: vol}, nil
		}, timeout)
}

func KuCoin(baseURL string, timeout time.Duration) Adapter {
	base := orDefault(baseURL, "https://api.kucoin.com")
	return newRESTVenue("KuCoin", "https://www.kucoin.com", 0.1,
		usdtSymbols("-", false),
		func(sym string) string { return base + "/api/v1/market/orderbook/level1?symbol=" + sym },
		func(body []byte) (ticker, error) {
			var r struct {
				Data *struct {
					Price string `json:"price"`
					Size  string `json:"size"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &r); err != nil {
				return ticker{}, err
			}
			if r.Data == nil {
				return ticker{}, fmt.Errorf("missing data")
			}
			price, err := parseF(r.Data.Price)
			if err != nil {
				return ticker{}, fmt.Errorf("price: %w", err)
			}
			vol, _ := parseF(r.Data.Size)
			return ticker{Price: price, Volume: vol}, nil
		}, timeout)
}

func Gate(baseURL string, timeout time.Duration) Adapter {
	base := orDefault(baseURL, "https://api.gateio.ws")
	return newRESTVenue("Gate.io", "https://www.gate.io", 0.2,
		usdtSymbols("_", false),
		func(sym string) string { return base + "/api/v4/spot/tickers?currency_pair=" + sym },
		func(body []byte) (ticker, error) {
			var r []struct {
				Last             string `json:"last"`
				BaseVolume       string `json:"base_volume"`
				ChangePercentage string `json:"change_percentage"`
			}
			if err := json.Unmarshal(body, &r); err != nil {
				return ticker{}, err
			}
			if len(r) == 0 {
				return ticker{}, fmt.Errorf("empty ticker list")
			}
			price, err := parseF(r[0].Last)
			if err != nil {
				return ticker{}, fmt.Errorf("last: %w", err)
			}
			vol, _ := parseF(r[0].BaseVolume)
			chg, _ := parseF(r[0].ChangePercentage)
			return ticker{Price: price, Volume: vol, Change24h: chg}, nil
		}, timeout)
}

func HTX(baseURL string, timeout time.Duration) Adapter {
	base := orDefault(baseURL, "https://api.huobi.pro")
	return newRESTVenue("HTX", "https://www.htx.com", 0.2,
		usdtSymbols("", true),
		func(sym string) string { return base + "/market/detail/merged?symbol=" + sym },
		func(body []byte) (ticker, error) {
			var r struct {
				Tick *struct {
					Close float64 `json:"close"`
					Vol   float64 `json:"vol"`
				} `json:"tick"`
			}
			if err := json.Unmarshal(body, &r); err != nil {
				return ticker{}, err
			}
			if r.Tick == nil {
				return ticker{}, fmt.Errorf("missing tick")
			}
			return ticker{Price: r.Tick.Close, Volume: r.Tick.Vol}, nil
		}, timeout)
}

func Coinbase(baseURL string, timeout time.Duration) Adapter {
	base := orDefault(baseURL, "https://api.coinbase.com")
	symbols := map[string]string{
		"BTC": "BTC-USD", "ETH": "ETH-USD", "SOL": "SOL-USD",
		"XRP": "XRP-USD", "ADA": "ADA-USD", "DOGE": "DOGE-USD",
		"AVAX": "AVAX-USD", "DOT": "DOT-USD", "LINK": "LINK-USD",
	}
	return newRESTVenue("Coinbase", "https://www.coinbase.com", 0.5,
		symbols,
		func(sym string) string { return base + "/v2/prices/" + sym + "/spot" },
		func(body []byte) (ticker, error) {
			var r struct {
				Data *struct {
					Amount string `json:"amount"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &r); err != nil {
				return ticker{}, err
			}
			if r.Data == nil {
				return ticker{}, fmt.Errorf("missing data")
			}
			price, err := parseF(r.Data.Amount)
			if err != nil {
				return ticker{}, fmt.Errorf("amount: %w", err)
			}
			return ticker{Price: price}, nil
		}, timeout)
}

func Kraken(baseURL string, timeout time.Duration) Adapter {
	base := orDefault(baseURL, "https://api.kraken.com")
	symbols := map[string]string{
		"BTC": "XBTUSD", "ETH": "ETHUSD", "SOL": "SOLUSD",
		"XRP": "XRPUSD", "ADA": "ADAUSD", "DOT": "DOTUSD", "LINK": "LINKUSD",
	}
	return newRESTVenue("Kraken", "https://www.kraken.com", 0.26,
		symbols,
		func(sym string) string { return base + "/0/public/Ticker?pair=" + sym },
		func(body []byte) (ticker, error) {
			// Kraken keys the result by its internal pair name
			// (XBTUSD comes back as XXBTZUSD), so take the single entry.
			var r struct {
				Result map[string]struct {
					C []string `json:"c"`
					V []string `json:"v"`
				} `json:"result"`
			}
			if err := json.Unmarshal(body, &r); err != nil {
				return ticker{}, err
			}
			for _, pair := range r.Result {
				if len(pair.C) == 0 {
					return ticker{}, fmt.Errorf("missing close price")
				}
				price, err := parseF(pair.C[0])
				if err != nil {
					return ticker{}, fmt.Errorf("close: %w", err)
				}
				var vol float64
				if len(pair.V) > 1 {
					vol, _ = parseF(pair.V[1])
				}
				return ticker{Price: price, Volume: vol}, nil
			}
			return ticker{}, fmt.Errorf("empty result")
		}, timeout)
}
