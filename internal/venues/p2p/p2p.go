// Package p2p fetches fiat on/off-ramp board prices from exchange P2P
// desks. Each client returns the average of the top board offers for one
// trade side; both sides of a platform together form a Board.
package p2p

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Board is one platform's two-sided USDT/RUB price. A zero side means the
// platform had no usable offers for that side this round.
type Board struct {
	Platform string
	Buy      float64
	Sell     float64
}

type Client interface {
	Platform() string
	BoardPrice(ctx context.Context, side Side) (float64, error)
}

// CollectBoards fetches both sides of every platform concurrently and keeps
// whatever succeeded. A platform with both sides missing is dropped.
func CollectBoards(ctx context.Context, clients []Client, log *zap.Logger) []Board {
	boards := make([]Board, len(clients))
	var wg sync.WaitGroup
	for i, cl := range clients {
		boards[i].Platform = cl.Platform()
		for _, side := range []Side{Buy, Sell} {
			wg.Add(1)
			go func(i int, cl Client, side Side) {
				defer wg.Done()
				px, err := cl.BoardPrice(ctx, side)
				if err != nil {
					log.Debug("p2p board unavailable",
						zap.String("platform", cl.Platform()),
						zap.String("side", string(side)),
						zap.Error(err))
					return
				}
				if side == Buy {
					boards[i].Buy = px
				} else {
					boards[i].Sell = px
				}
			}(i, cl, side)
		}
	}
	wg.Wait()

	out := boards[:0]
	for _, b := range boards {
		if b.Buy > 0 || b.Sell > 0 {
			out = append(out, b)
		}
	}
	return out
}

// ---- Binance P2P ----

type BinanceP2P struct {
	base string
	http *http.Client
}

func NewBinanceP2P(baseURL string, timeout time.Duration) *BinanceP2P {
	if baseURL == "" {
		baseURL = "https://p2p.binance.com"
	}
	return &BinanceP2P{base: baseURL, http: &http.Client{Timeout: timeout}}
}

func (b *BinanceP2P) Platform() string { return "Binance P2P" }

func (b *BinanceP2P) BoardPrice(ctx context.Context, side Side) (float64, error) {
	payload := map[string]any{
		"page":      1,
		"rows":      5,
		"payTypes":  []string{"TinkoffNew", "RosBankNew", "RaiffeisenBank"},
		"asset":     "USDT",
		"tradeType": string(side),
		"fiat":      "RUB",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.base+"/bapi/c2c/v2/friendly/c2c/adv/search", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := b.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("binance p2p %d", resp.StatusCode)
	}

	var r struct {
		Data []struct {
			Adv struct {
				Price string `json:"price"`
			} `json:"adv"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, err
	}
	if len(r.Data) == 0 {
		return 0, fmt.Errorf("binance p2p: no offers")
	}

	var sum float64
	var n int
	for _, ad := range r.Data {
		px, err := strconv.ParseFloat(ad.Adv.Price, 64)
		if err != nil || px <= 0 {
			continue
		}
		sum += px
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("binance p2p: no parseable offers")
	}
	return sum / float64(n), nil
}

// ---- Bybit OTC ----

type BybitOTC struct {
	base string
	http *http.Client
}

func NewBybitOTC(baseURL string, timeout time.Duration) *BybitOTC {
	if baseURL == "" {
		baseURL = "https://api2.bybit.com"
	}
	return &BybitOTC{base: baseURL, http: &http.Client{Timeout: timeout}}
}

func (b *BybitOTC) Platform() string { return "Bybit P2P" }

func (b *BybitOTC) BoardPrice(ctx context.Context, side Side) (float64, error) {
	// Bybit encodes the side numerically: 1 = buy board, 0 = sell board.
	sideParam := "1"
	if side == Sell {
		sideParam = "0"
	}
	url := b.base + "/fiat/otc/item/online?userId=&tokenId=USDT&currencyId=RUB&payment=75&side=" +
		sideParam + "&size=5&page=1&amount="

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := b.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("bybit otc %d", resp.StatusCode)
	}

	var r struct {
		Result struct {
			Items []struct {
				Price string `json:"price"`
			} `json:"items"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, err
	}
	if len(r.Result.Items) == 0 {
		return 0, fmt.Errorf("bybit otc: no offers")
	}

	items := r.Result.Items
	if len(items) > 5 {
		items = items[:5]
	}
	var sum float64
	var n int
	for _, it := range items {
		px, err := strconv.ParseFloat(it.Price, 64)
		if err != nil || px <= 0 {
			continue
		}
		sum += px
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("bybit otc: no parseable offers")
	}
	return sum / float64(n), nil
}
