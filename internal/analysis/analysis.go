package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/songzhibin97/tokenlens/internal/address"
	"github.com/songzhibin97/tokenlens/internal/data"
	"github.com/songzhibin97/tokenlens/internal/models"
	"github.com/songzhibin97/tokenlens/internal/risk"
)

const (
	ConcernMetadata = "metadata"
	ConcernMarket   = "market"
	ConcernSocial   = "social"
)

// FetchStatus 单项数据拉取结果
type FetchStatus struct {
	Concern string `json:"concern"`
	Source  string `json:"source,omitempty"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// Report 一次分析的完整输出
type Report struct {
	Address        string                `json:"address"`
	Metadata       models.TokenMetadata  `json:"metadata"`
	Market         models.MarketMetrics  `json:"market"`
	Social         models.SocialMetrics  `json:"social"`
	Recommendation models.Recommendation `json:"recommendation"`
	Fetches        []FetchStatus         `json:"fetches"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// Failed lists the concerns whose fetch fell back to zero values.
func (r *Report) Failed() []string {
	var out []string
	for _, f := range r.Fetches {
		if !f.OK {
			out = append(out, f.Concern)
		}
	}
	return out
}

type Service struct {
	metadata data.MetadataFetcher
	market   data.MarketFetcher
	social   data.SocialFetcher
	scorer   risk.Scorer
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(
	metadata data.MetadataFetcher,
	market data.MarketFetcher,
	social data.SocialFetcher,
	scorer risk.Scorer,
	logger *slog.Logger,
) *Service {
	return &Service{
		metadata: metadata,
		market:   market,
		social:   social,
		scorer:   scorer,
		logger:   logger,
		now:      time.Now,
	}
}

// Analyze validates the address, fetches every bundle and scores them.
// Only an invalid address is an error; a failed fetch degrades to zero values.
func (s *Service) Analyze(ctx context.Context, addr string) (*Report, error) {
	if err := address.Validate(addr); err != nil {
		return nil, err
	}
	addr = address.Normalize(addr)

	report := &Report{Address: addr}
	log := s.logger.With("address", addr)

	metadata := models.TokenMetadata{Address: addr}
	if got, err := s.metadata.FetchMetadata(ctx, addr); err != nil {
		log.Warn("metadata fetch failed, using defaults", "err", err)
		report.Fetches = append(report.Fetches, FetchStatus{Concern: ConcernMetadata, Error: err.Error()})
	} else {
		metadata = *got
		metadata.Address = addr
		report.Fetches = append(report.Fetches, FetchStatus{Concern: ConcernMetadata, Source: got.Source, OK: true})
	}

	var market models.MarketMetrics
	if got, err := s.market.FetchMarket(ctx, addr); err != nil {
		log.Warn("market fetch failed, using defaults", "err", err)
		report.Fetches = append(report.Fetches, FetchStatus{Concern: ConcernMarket, Error: err.Error()})
	} else {
		market = *got
		report.Fetches = append(report.Fetches, FetchStatus{Concern: ConcernMarket, Source: got.Source, OK: true})
	}

	// 社交查询依赖元数据中的名称与符号
	social := models.SocialMetrics{Accounts: []models.Account{}}
	if got, err := s.social.FetchSocial(ctx, metadata); err != nil {
		log.Warn("social fetch failed, using defaults", "err", err)
		report.Fetches = append(report.Fetches, FetchStatus{Concern: ConcernSocial, Error: err.Error()})
	} else {
		social = *got
		report.Fetches = append(report.Fetches, FetchStatus{Concern: ConcernSocial, Source: got.Source, OK: true})
	}

	report.Metadata = metadata
	report.Market = market
	report.Social = social
	report.Recommendation = s.scorer.Score(metadata, market, social)
	report.GeneratedAt = s.now().UTC()

	log.Info("analysis finished",
		"score", report.Recommendation.Score,
		"verdict", report.Recommendation.Verdict,
		"failed", report.Failed())

	return report, nil
}
