package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokenlens/internal/data"
	"github.com/songzhibin97/tokenlens/internal/models"
)

const DefaultBaseURL = "https://lite-api.jup.ag"

// JupiterDataSource only knows prices; volume and liquidity stay zero.
type JupiterDataSource struct {
	baseURL    string
	httpClient *resty.Client
}

func NewJupiterDataSource(baseURL string, client *resty.Client) *JupiterDataSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &JupiterDataSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (j *JupiterDataSource) Name() string {
	return "jupiter"
}

type priceResponse struct {
	Data map[string]*struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Price string `json:"price"`
	} `json:"data"`
}

func (j *JupiterDataSource) FetchMarket(ctx context.Context, address string) (*models.MarketMetrics, error) {
	resp, err := j.httpClient.R().
		SetContext(ctx).
		SetQueryParam("ids", address).
		Get(j.baseURL + "/price/v2")
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var result priceResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	entry := result.Data[address]
	if entry == nil || entry.Price == "" {
		return nil, fmt.Errorf("jupiter: %w", data.ErrNotFound)
	}

	price, err := decimal.NewFromString(entry.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("negative price %s", entry.Price)
	}

	return &models.MarketMetrics{
		PriceUSD: price.InexactFloat64(),
		DEX:      "Jupiter Aggregator",
	}, nil
}
