package main

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenlens/internal/ai/keyword"
	"github.com/songzhibin97/tokenlens/internal/ai/openai"
	"github.com/songzhibin97/tokenlens/internal/analysis"
	"github.com/songzhibin97/tokenlens/internal/configs"
	"github.com/songzhibin97/tokenlens/internal/models"
	"github.com/songzhibin97/tokenlens/internal/risk"
	"github.com/songzhibin97/tokenlens/internal/social"
	"github.com/songzhibin97/tokenlens/internal/utils/request"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestBuildSources_Order(t *testing.T) {
	config := configs.Default()
	config.Sources.Metadata = []string{"solanarpc", "dexscreener"}
	config.Sources.Market = []string{"jupiter", "dexscreener"}

	analyzer := social.NewAnalyzer(config.Social, nil, testLogger)
	sources, err := buildSources(config, request.New(request.DefaultOptions()), analyzer, testLogger)
	require.NoError(t, err)

	var metadata, market []string
	for _, s := range sources.Metadata {
		metadata = append(metadata, s.Name())
	}
	for _, s := range sources.Market {
		market = append(market, s.Name())
	}
	assert.Equal(t, []string{"solanarpc", "dexscreener"}, metadata)
	assert.Equal(t, []string{"jupiter", "dexscreener"}, market)
	require.Len(t, sources.Social, 1)
	assert.Equal(t, "exa", sources.Social[0].Name())
}

func TestBuildSources_Unknown(t *testing.T) {
	config := configs.Default()
	config.Sources.Market = []string{"binance"}

	analyzer := social.NewAnalyzer(config.Social, nil, testLogger)
	_, err := buildSources(config, request.New(request.DefaultOptions()), analyzer, testLogger)
	assert.ErrorContains(t, err, `unknown market source "binance"`)
}

func TestBuildService(t *testing.T) {
	config := configs.Default()
	config.Secrets.ExaAPIKey = "exa-key"

	service, err := buildService(config, testLogger)
	require.NoError(t, err)
	assert.NotNil(t, service)

	config.Scoring.LiquidityCap = 0
	_, err = buildService(config, testLogger)
	assert.Error(t, err)
}

func TestNewClassifier(t *testing.T) {
	config := configs.Default()
	assert.IsType(t, &keyword.Classifier{}, newClassifier(config))

	config.AIConfig.Provider = configs.ProviderOpenAI
	config.Secrets.OpenAIAPIKey = "sk-test"
	assert.IsType(t, &openai.OpenAIClassifier{}, newClassifier(config))
}

func TestPrintReport(t *testing.T) {
	report := &analysis.Report{
		Address:  "GBUxQFRXQjSPjkxymAUKPfbUbSpRY8Ui7az1HCxtpump",
		Metadata: models.TokenMetadata{Name: "Test Token"},
		Market:   models.MarketMetrics{PriceUSD: 0.0001, Liquidity: 50_000, Volume24h: 25_000},
		Recommendation: models.Recommendation{
			Score:       20,
			MarketScore: 50,
			Verdict:     risk.VerdictHighRisk,
			Reasons:     []string{"Moderate liquidity ($50000)"},
			Disclaimer:  risk.Disclaimer,
		},
		Fetches: []analysis.FetchStatus{
			{Concern: analysis.ConcernSocial, Error: "exa down"},
		},
		GeneratedAt: time.Now(),
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "Test Token (GBUxQFRXQjSPjkxymAUKPfbUbSpRY8Ui7az1HCxtpump)")
	assert.Contains(t, out, "Score: 20.0/100  HIGH RISK")
	assert.Contains(t, out, "  - Moderate liquidity ($50000)")
	assert.Contains(t, out, "warning: social unavailable: exa down")
	assert.Contains(t, out, risk.Disclaimer)
}
