package risk

import (
	"github.com/songzhibin97/tokenlens/internal/models"
)

// Scorer turns fetched bundles into a recommendation
type Scorer interface {
	// Score never fails; zero-valued bundles are valid input
	Score(metadata models.TokenMetadata, market models.MarketMetrics, social models.SocialMetrics) models.Recommendation
}

// 分项权重，固定不可配置
const (
	SocialWeight  = 0.4
	NotableWeight = 0.2
	MarketWeight  = 0.4
)

const (
	VerdictInsufficientData = "insufficient data"
	VerdictHighRisk         = "high risk"
	VerdictSpeculative      = "speculative"
	VerdictLowRisk          = "low risk relative to category"
)

const Disclaimer = "This analysis is for educational purposes only and should not be considered financial advice. " +
	"Cryptocurrency investments are highly risky and volatile. " +
	"Always do your own research and never invest more than you can afford to lose."

// ScoringParameters 归一化阈值与分档配置
type ScoringParameters struct {
	MentionCap        float64 `json:"mention_cap" yaml:"mention_cap"`               // 提及数达到该值时满分
	EngagementCap     float64 `json:"engagement_cap" yaml:"engagement_cap"`         // 互动分达到该值时满分
	LiquidityCap      float64 `json:"liquidity_cap" yaml:"liquidity_cap"`           // 流动性(USD)达到该值时满分
	VolumeCap         float64 `json:"volume_cap" yaml:"volume_cap"`                 // 24h成交量(USD)达到该值时满分
	NotableSaturation int     `json:"notable_saturation" yaml:"notable_saturation"` // 知名账号数达到该值时满分
	HighRiskBelow     float64 `json:"high_risk_below" yaml:"high_risk_below"`       // 低于该分数为高风险
	LowRiskAbove      float64 `json:"low_risk_above" yaml:"low_risk_above"`         // 高于该分数为低风险
}

func DefaultScoringParameters() ScoringParameters {
	return ScoringParameters{
		MentionCap:        50,
		EngagementCap:     100,
		LiquidityCap:      100_000,
		VolumeCap:         50_000,
		NotableSaturation: 3,
		HighRiskBelow:     30,
		LowRiskAbove:      70,
	}
}
