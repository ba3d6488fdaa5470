package risk

import (
	"fmt"
	"math"

	"github.com/songzhibin97/tokenlens/internal/models"
)

type WeightedScorer struct {
	params ScoringParameters
}

func NewWeightedScorer(params ScoringParameters) (*WeightedScorer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &WeightedScorer{params: params}, nil
}

func (p ScoringParameters) Validate() error {
	if p.MentionCap <= 0 || p.EngagementCap <= 0 || p.LiquidityCap <= 0 || p.VolumeCap <= 0 {
		return fmt.Errorf("invalid scoring parameters: caps must be positive")
	}
	if p.NotableSaturation < 1 {
		return fmt.Errorf("invalid scoring parameters: notable saturation must be at least 1")
	}
	if p.HighRiskBelow < 0 || p.LowRiskAbove > 100 || p.HighRiskBelow > p.LowRiskAbove {
		return fmt.Errorf("invalid scoring parameters: need 0 <= high_risk_below <= low_risk_above <= 100, got %.2f and %.2f",
			p.HighRiskBelow, p.LowRiskAbove)
	}
	return nil
}

func (s *WeightedScorer) Parameters() ScoringParameters {
	return s.params
}

func (s *WeightedScorer) Score(metadata models.TokenMetadata, market models.MarketMetrics, social models.SocialMetrics) models.Recommendation {
	if metadata.IsZero() && market.IsZero() && social.IsZero() {
		return models.Recommendation{
			Verdict:    VerdictInsufficientData,
			Reasons:    []string{"No data could be fetched from any source"},
			Disclaimer: Disclaimer,
		}
	}

	notableCount := social.NotableCount()

	rec := models.Recommendation{
		SocialScore:  s.SocialSubscore(social),
		NotableScore: s.NotableSubscore(notableCount),
		MarketScore:  s.MarketSubscore(market),
		NotableCount: notableCount,
		Disclaimer:   Disclaimer,
	}

	rec.Score = clamp(SocialWeight*rec.SocialScore + NotableWeight*rec.NotableScore + MarketWeight*rec.MarketScore)
	rec.Verdict = s.Verdict(rec.Score)
	rec.Reasons = s.reasons(rec, market, social)

	return rec
}

// SocialSubscore averages the linear mention and engagement scales.
func (s *WeightedScorer) SocialSubscore(social models.SocialMetrics) float64 {
	mentions := linear(float64(social.Mentions), s.params.MentionCap)
	engagement := linear(social.EngagementScore, s.params.EngagementCap)
	return clamp((mentions + engagement) / 2)
}

// MarketSubscore averages the linear liquidity and volume scales.
func (s *WeightedScorer) MarketSubscore(market models.MarketMetrics) float64 {
	liquidity := linear(market.Liquidity, s.params.LiquidityCap)
	volume := linear(market.Volume24h, s.params.VolumeCap)
	return clamp((liquidity + volume) / 2)
}

// NotableSubscore is 100*(1-2^-n), reaching 100 at the saturation count.
func (s *WeightedScorer) NotableSubscore(count int) float64 {
	if count <= 0 {
		return 0
	}
	if count >= s.params.NotableSaturation {
		return 100
	}
	return clamp(100 * (1 - math.Pow(2, -float64(count))))
}

// Verdict bands are [0,high) high risk, [high,low] speculative, (low,100] low risk.
func (s *WeightedScorer) Verdict(score float64) string {
	switch {
	case score < s.params.HighRiskBelow:
		return VerdictHighRisk
	case score > s.params.LowRiskAbove:
		return VerdictLowRisk
	default:
		return VerdictSpeculative
	}
}

func (s *WeightedScorer) reasons(rec models.Recommendation, market models.MarketMetrics, social models.SocialMetrics) []string {
	reasons := make([]string, 0, 4)

	switch {
	case rec.SocialScore >= 70:
		reasons = append(reasons, fmt.Sprintf("Strong social media presence (%d verified mentions)", social.Mentions))
	case rec.SocialScore >= 40:
		reasons = append(reasons, fmt.Sprintf("Moderate social media presence (%d verified mentions)", social.Mentions))
	default:
		reasons = append(reasons, fmt.Sprintf("Weak or no social media presence (%d verified mentions)", social.Mentions))
	}

	switch {
	case rec.NotableCount == 0:
		reasons = append(reasons, "No notable accounts discussing")
	case rec.NotableCount >= s.params.NotableSaturation:
		reasons = append(reasons, fmt.Sprintf("%d notable accounts discussing", rec.NotableCount))
	default:
		reasons = append(reasons, fmt.Sprintf("%d notable account(s) discussing", rec.NotableCount))
	}

	switch {
	case market.Liquidity >= s.params.LiquidityCap:
		reasons = append(reasons, fmt.Sprintf("Strong liquidity ($%.0f)", market.Liquidity))
	case market.Liquidity >= s.params.LiquidityCap/2:
		reasons = append(reasons, fmt.Sprintf("Moderate liquidity ($%.0f)", market.Liquidity))
	default:
		reasons = append(reasons, fmt.Sprintf("Low liquidity ($%.0f)", sanitize(market.Liquidity)))
	}

	switch {
	case market.Volume24h >= s.params.VolumeCap:
		reasons = append(reasons, fmt.Sprintf("Good trading volume ($%.0f/24h)", market.Volume24h))
	case market.Volume24h >= s.params.VolumeCap/5:
		reasons = append(reasons, fmt.Sprintf("Moderate trading volume ($%.0f/24h)", market.Volume24h))
	default:
		reasons = append(reasons, fmt.Sprintf("Low trading volume ($%.0f/24h)", sanitize(market.Volume24h)))
	}

	return reasons
}

// linear maps value onto [0,100], saturating at limit.
func linear(value, limit float64) float64 {
	value = sanitize(value)
	if value >= limit {
		return 100
	}
	return 100 * value / limit
}

// sanitize treats negative and NaN inputs as missing data.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
