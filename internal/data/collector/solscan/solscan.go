package solscan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenlens/internal/data"
	"github.com/songzhibin97/tokenlens/internal/models"
)

const DefaultBaseURL = "https://public-api.solscan.io"

type SolscanDataSource struct {
	baseURL    string
	apiKey     string
	httpClient *resty.Client
}

func NewSolscanDataSource(baseURL, apiKey string, client *resty.Client) *SolscanDataSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &SolscanDataSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
	}
}

func (s *SolscanDataSource) Name() string {
	return "solscan"
}

// supply is a string on some deployments and a number on others
type tokenMeta struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Decimals    *int            `json:"decimals"`
	Supply      json.RawMessage `json:"supply"`
	TotalSupply json.RawMessage `json:"totalSupply"`
}

func (s *SolscanDataSource) FetchMetadata(ctx context.Context, address string) (*models.TokenMetadata, error) {
	req := s.httpClient.R().
		SetContext(ctx).
		SetQueryParam("tokenAddress", address)
	if s.apiKey != "" {
		req.SetHeader("token", s.apiKey)
	}

	resp, err := req.Get(s.baseURL + "/token/meta")
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("solscan: %w", data.ErrNotFound)
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var meta tokenMeta
	if err := json.Unmarshal(resp.Body(), &meta); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if meta.Name == "" && meta.Symbol == "" {
		return nil, fmt.Errorf("solscan: %w", data.ErrNotFound)
	}

	result := &models.TokenMetadata{
		Address: address,
		Name:    meta.Name,
		Symbol:  meta.Symbol,
		Supply:  rawNumber(meta.Supply),
	}
	if result.Name == "" {
		result.Name = meta.Symbol
	}
	if result.Supply == "" {
		result.Supply = rawNumber(meta.TotalSupply)
	}
	if meta.Decimals != nil {
		result.Decimals = *meta.Decimals
	}

	return result, nil
}

func rawNumber(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}
