package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokenlens/internal/data"
	"github.com/songzhibin97/tokenlens/internal/models"
)

const DefaultBaseURL = "https://api.dexscreener.com"

// 元数据与行情共用同一次 pairs 查询
const pairTTL = 10 * time.Second

type DexScreenerDataSource struct {
	baseURL    string
	httpClient *resty.Client

	mu    sync.Mutex
	pairs map[string]cachedPair
	now   func() time.Time
}

type cachedPair struct {
	pair      pair
	fetchedAt time.Time
}

func NewDexScreenerDataSource(baseURL string, client *resty.Client) *DexScreenerDataSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &DexScreenerDataSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		pairs:      make(map[string]cachedPair),
		now:        time.Now,
	}
}

func (d *DexScreenerDataSource) Name() string {
	return "dexscreener"
}

type tokensResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUsd string `json:"priceUsd"`
	Volume   struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity *struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
	Fdv       float64 `json:"fdv"`
	MarketCap float64 `json:"marketCap"`
}

func (p pair) liquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.Usd
}

// bestPair returns the deepest solana pair, reusing a lookup younger than pairTTL.
func (d *DexScreenerDataSource) bestPair(ctx context.Context, address string) (*pair, error) {
	now := d.now()

	d.mu.Lock()
	if c, ok := d.pairs[address]; ok && now.Sub(c.fetchedAt) < pairTTL {
		d.mu.Unlock()
		p := c.pair
		return &p, nil
	}
	d.mu.Unlock()

	p, err := d.fetchBestPair(ctx, address)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	for addr, c := range d.pairs {
		if now.Sub(c.fetchedAt) >= pairTTL {
			delete(d.pairs, addr)
		}
	}
	d.pairs[address] = cachedPair{pair: *p, fetchedAt: now}
	d.mu.Unlock()

	return p, nil
}

// fetchBestPair picks the solana pair with the deepest USD liquidity.
func (d *DexScreenerDataSource) fetchBestPair(ctx context.Context, address string) (*pair, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", d.baseURL, address)

	resp, err := d.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var result tokensResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var best *pair
	for i := range result.Pairs {
		p := &result.Pairs[i]
		if p.ChainID != "" && p.ChainID != "solana" {
			continue
		}
		if best == nil || p.liquidityUSD() > best.liquidityUSD() {
			best = p
		}
	}

	if best == nil {
		return nil, fmt.Errorf("dexscreener: %w", data.ErrNotFound)
	}
	return best, nil
}

func (d *DexScreenerDataSource) FetchMetadata(ctx context.Context, address string) (*models.TokenMetadata, error) {
	p, err := d.bestPair(ctx, address)
	if err != nil {
		return nil, err
	}

	// the token can be the quote side of its deepest pair
	if p.BaseToken.Address != "" && p.BaseToken.Address != address {
		return nil, fmt.Errorf("dexscreener: base token %s differs: %w", p.BaseToken.Address, data.ErrNotFound)
	}

	return &models.TokenMetadata{
		Address: address,
		Name:    p.BaseToken.Name,
		Symbol:  p.BaseToken.Symbol,
	}, nil
}

func (d *DexScreenerDataSource) FetchMarket(ctx context.Context, address string) (*models.MarketMetrics, error) {
	p, err := d.bestPair(ctx, address)
	if err != nil {
		return nil, err
	}

	price := decimal.Zero
	if p.PriceUsd != "" {
		price, err = decimal.NewFromString(p.PriceUsd)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}
	}

	marketCap := p.MarketCap
	if marketCap == 0 {
		marketCap = p.Fdv
	}

	return &models.MarketMetrics{
		PriceUSD:       price.InexactFloat64(),
		Volume24h:      p.Volume.H24,
		Liquidity:      p.liquidityUSD(),
		MarketCap:      marketCap,
		PriceChange24h: p.PriceChange.H24,
		DEX:            p.DexID,
		PairAddress:    p.PairAddress,
	}, nil
}
