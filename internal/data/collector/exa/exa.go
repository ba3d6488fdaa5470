package exa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/songzhibin97/tokenlens/internal/models"
	"github.com/songzhibin97/tokenlens/internal/social"
)

const DefaultBaseURL = "https://api.exa.ai"

var ErrMissingAPIKey = errors.New("exa api key not configured")

type Options struct {
	BaseURL        string
	APIKey         string
	NumResults     int
	MaxTextChars   int
	IncludeDomains []string
	QueryInterval  time.Duration // 查询间隔，防止触发限流
}

func DefaultOptions() Options {
	return Options{
		BaseURL:        DefaultBaseURL,
		NumResults:     10,
		MaxTextChars:   1000,
		IncludeDomains: []string{"x.com", "twitter.com"},
		QueryInterval:  500 * time.Millisecond,
	}
}

// ExaDataSource searches X posts through the Exa web search API
type ExaDataSource struct {
	baseURL    string
	opts       Options
	httpClient *resty.Client
	limiter    *rate.Limiter
	analyzer   *social.Analyzer
	logger     *slog.Logger
}

func NewExaDataSource(opts Options, client *resty.Client, analyzer *social.Analyzer, logger *slog.Logger) *ExaDataSource {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.NumResults <= 0 {
		opts.NumResults = def.NumResults
	}
	if opts.MaxTextChars <= 0 {
		opts.MaxTextChars = def.MaxTextChars
	}
	if len(opts.IncludeDomains) == 0 {
		opts.IncludeDomains = def.IncludeDomains
	}

	limit := rate.Inf
	if opts.QueryInterval > 0 {
		limit = rate.Every(opts.QueryInterval)
	}

	return &ExaDataSource{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		opts:       opts,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
		analyzer:   analyzer,
		logger:     logger,
	}
}

func (e *ExaDataSource) Name() string {
	return "exa"
}

type searchRequest struct {
	Query          string   `json:"query"`
	NumResults     int      `json:"numResults"`
	IncludeDomains []string `json:"includeDomains,omitempty"`
	Contents       struct {
		Text struct {
			MaxCharacters int `json:"maxCharacters"`
		} `json:"text"`
	} `json:"contents"`
}

type searchResponse struct {
	Results []struct {
		ID            string  `json:"id"`
		URL           string  `json:"url"`
		Title         string  `json:"title"`
		Author        string  `json:"author"`
		PublishedDate string  `json:"publishedDate"`
		Score         float64 `json:"score"`
		Text          string  `json:"text"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

// FetchSocial runs every query, tolerating individual failures, and analyzes the merged hits.
func (e *ExaDataSource) FetchSocial(ctx context.Context, metadata models.TokenMetadata) (*models.SocialMetrics, error) {
	if e.opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	queries := social.BuildQueries(metadata)
	seen := make(map[string]struct{})
	var candidates []social.Candidate
	var lastErr error
	failed := 0

	for _, query := range queries {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("exa rate limiter: %w", err)
		}

		hits, err := e.search(ctx, query)
		if err != nil {
			e.logger.Warn("exa search query failed", "query", query, "err", err)
			lastErr = err
			failed++
			continue
		}

		for _, h := range hits {
			key := strings.ToLower(h.URL)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			candidates = append(candidates, h)
		}
	}

	if failed == len(queries) {
		return nil, fmt.Errorf("all %d exa queries failed: %w", failed, lastErr)
	}

	metrics := e.analyzer.Analyze(ctx, metadata, candidates)
	e.logger.Debug("exa search finished", "address", metadata.Address, "hits", len(candidates), "verified", metrics.Mentions)
	return &metrics, nil
}

func (e *ExaDataSource) search(ctx context.Context, query string) ([]social.Candidate, error) {
	body := searchRequest{
		Query:          query,
		NumResults:     e.opts.NumResults,
		IncludeDomains: e.opts.IncludeDomains,
	}
	body.Contents.Text.MaxCharacters = e.opts.MaxTextChars

	resp, err := e.httpClient.R().
		SetContext(ctx).
		SetHeader("x-api-key", e.opts.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(e.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	var result searchResponse
	if resp.StatusCode() != http.StatusOK {
		if json.Unmarshal(resp.Body(), &result) == nil && result.Error != "" {
			return nil, fmt.Errorf("api error: status=%d, message=%s", resp.StatusCode(), result.Error)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make([]social.Candidate, 0, len(result.Results))
	for _, r := range result.Results {
		if r.URL == "" {
			continue
		}
		out = append(out, social.Candidate{
			Title:       r.Title,
			URL:         r.URL,
			Author:      r.Author,
			Text:        r.Text,
			PublishedAt: r.PublishedDate,
		})
	}
	return out, nil
}
