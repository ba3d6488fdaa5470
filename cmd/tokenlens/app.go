package main

import (
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenlens/internal/ai"
	"github.com/songzhibin97/tokenlens/internal/ai/keyword"
	"github.com/songzhibin97/tokenlens/internal/ai/openai"
	"github.com/songzhibin97/tokenlens/internal/analysis"
	"github.com/songzhibin97/tokenlens/internal/configs"
	"github.com/songzhibin97/tokenlens/internal/data/collector"
	"github.com/songzhibin97/tokenlens/internal/data/collector/dexscreener"
	"github.com/songzhibin97/tokenlens/internal/data/collector/exa"
	"github.com/songzhibin97/tokenlens/internal/data/collector/jupiter"
	"github.com/songzhibin97/tokenlens/internal/data/collector/solanarpc"
	"github.com/songzhibin97/tokenlens/internal/data/collector/solscan"
	"github.com/songzhibin97/tokenlens/internal/risk"
	"github.com/songzhibin97/tokenlens/internal/social"
	"github.com/songzhibin97/tokenlens/internal/utils/request"
)

// buildService 初始化各个组件并组装分析服务
func buildService(config *configs.Config, logger *slog.Logger) (*analysis.Service, error) {
	opts := request.DefaultOptions()
	if timeout := config.SourceTimeout(); timeout > 0 {
		opts.Timeout = timeout
	}
	opts.RetryCount = config.Sources.RetryCount
	client := request.New(opts)

	classifier := newClassifier(config)
	logger.Debug("init classifier", "provider", config.AIConfig.Provider)

	analyzer := social.NewAnalyzer(config.Social, classifier, logger)

	sources, err := buildSources(config, client, analyzer, logger)
	if err != nil {
		return nil, err
	}

	breaker := collector.DefaultBreakerSettings()
	if config.Breaker.ConsecutiveFailures > 0 {
		breaker.ConsecutiveFailures = config.Breaker.ConsecutiveFailures
	}
	if timeout := config.BreakerTimeout(); timeout > 0 {
		breaker.Timeout = timeout
	}
	multi := collector.NewMultiSourceCollector(sources, logger, breaker)
	logger.Debug("init collector")

	scorer, err := risk.NewWeightedScorer(config.Scoring)
	if err != nil {
		return nil, err
	}
	logger.Debug("init scorer")

	return analysis.NewService(multi, multi, multi, scorer, logger), nil
}

func newClassifier(config *configs.Config) ai.SentimentClassifier {
	if config.AIConfig.Provider == configs.ProviderOpenAI {
		return openai.NewOpenAIClassifier(config.Secrets.OpenAIAPIKey, config.AIConfig.Model, config.AIConfig.BaseURL)
	}
	return keyword.NewClassifier(nil, nil)
}

func buildSources(config *configs.Config, client *resty.Client, analyzer *social.Analyzer, logger *slog.Logger) (collector.Sources, error) {
	dex := dexscreener.NewDexScreenerDataSource(config.Sources.DexScreenerURL, client)

	metadataByName := map[string]collector.MetadataSource{
		"solscan":     solscan.NewSolscanDataSource(config.Sources.SolscanURL, config.Secrets.SolscanAPIKey, client),
		"dexscreener": dex,
		"solanarpc":   solanarpc.NewRPCDataSource(config.Sources.SolanaRPC),
	}
	marketByName := map[string]collector.MarketSource{
		"dexscreener": dex,
		"jupiter":     jupiter.NewJupiterDataSource(config.Sources.JupiterURL, client),
	}

	var sources collector.Sources
	for _, name := range config.Sources.Metadata {
		src, ok := metadataByName[name]
		if !ok {
			return sources, fmt.Errorf("unknown metadata source %q", name)
		}
		sources.Metadata = append(sources.Metadata, src)
	}
	for _, name := range config.Sources.Market {
		src, ok := marketByName[name]
		if !ok {
			return sources, fmt.Errorf("unknown market source %q", name)
		}
		sources.Market = append(sources.Market, src)
	}

	sources.Social = []collector.SocialSource{
		exa.NewExaDataSource(exa.Options{
			BaseURL:       config.Sources.ExaURL,
			APIKey:        config.Secrets.ExaAPIKey,
			NumResults:    config.Sources.ExaNumResults,
			QueryInterval: config.ExaQueryInterval(),
		}, client, analyzer, logger),
	}

	return sources, nil
}
