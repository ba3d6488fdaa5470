package models

import "strings"

// TokenMetadata 代币基本信息
type TokenMetadata struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Supply   string `json:"supply,omitempty"` // 原始字符串，不同来源精度不同
	Source   string `json:"source,omitempty"`
}

// IsZero reports whether no upstream filled in any field.
func (m TokenMetadata) IsZero() bool {
	return m.Name == "" && m.Symbol == "" && m.Decimals == 0 && m.Supply == ""
}

// DisplayName returns the name shown in reports, falling back to a shortened address.
func (m TokenMetadata) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	if m.Symbol != "" {
		return m.Symbol
	}
	if len(m.Address) > 8 {
		return "Token " + m.Address[:8] + "..."
	}
	return "Unknown Token"
}

// MarketMetrics 市场数据
type MarketMetrics struct {
	PriceUSD       float64 `json:"price_usd"`
	Volume24h      float64 `json:"volume_24h"`
	Liquidity      float64 `json:"liquidity"`
	MarketCap      float64 `json:"market_cap"`
	PriceChange24h float64 `json:"price_change_24h"`
	DEX            string  `json:"dex,omitempty"`
	PairAddress    string  `json:"pair_address,omitempty"`
	Source         string  `json:"source,omitempty"`
}

func (m MarketMetrics) IsZero() bool {
	return m.PriceUSD == 0 && m.Volume24h == 0 && m.Liquidity == 0 &&
		m.MarketCap == 0 && m.PriceChange24h == 0
}

// Sentiment of a single mention: -1 negative, 0 neutral, 1 positive.
type Sentiment int

const (
	SentimentNegative Sentiment = -1
	SentimentNeutral  Sentiment = 0
	SentimentPositive Sentiment = 1
)

func (s Sentiment) String() string {
	switch s {
	case SentimentPositive:
		return "positive"
	case SentimentNegative:
		return "negative"
	default:
		return "neutral"
	}
}

// Mention 经过相关性校验的社交媒体提及
type Mention struct {
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	Author         string    `json:"author,omitempty"`
	Text           string    `json:"text,omitempty"`
	PublishedAt    string    `json:"published_at,omitempty"`
	RelevanceScore int       `json:"relevance_score"`
	Sentiment      Sentiment `json:"sentiment"`
}

// Account 提及中出现的社交账号
type Account struct {
	Handle    string `json:"handle"`
	Followers int64  `json:"followers"`
	Notable   bool   `json:"notable"`
}

// SocialMetrics 社交指标
type SocialMetrics struct {
	Mentions         int       `json:"mentions"`
	EngagementScore  float64   `json:"engagement_score"`
	Accounts         []Account `json:"accounts"`
	PositiveMentions int       `json:"positive_mentions"`
	NegativeMentions int       `json:"negative_mentions"`
	Items            []Mention `json:"items,omitempty"`
	Source           string    `json:"source,omitempty"`
}

func (s SocialMetrics) IsZero() bool {
	return s.Mentions == 0 && s.EngagementScore == 0 && len(s.Accounts) == 0
}

// NotableCount counts distinct handles flagged notable.
func (s SocialMetrics) NotableCount() int {
	seen := make(map[string]struct{}, len(s.Accounts))
	for _, a := range s.Accounts {
		if !a.Notable {
			continue
		}
		seen[strings.ToLower(a.Handle)] = struct{}{}
	}
	return len(seen)
}

// NotableAccounts returns only the accounts flagged notable.
func (s SocialMetrics) NotableAccounts() []Account {
	var out []Account
	for _, a := range s.Accounts {
		if a.Notable {
			out = append(out, a)
		}
	}
	return out
}

// Recommendation 评分结果
type Recommendation struct {
	Score        float64  `json:"score"`
	SocialScore  float64  `json:"social_score"`
	NotableScore float64  `json:"notable_score"`
	MarketScore  float64  `json:"market_score"`
	NotableCount int      `json:"notable_count"`
	Verdict      string   `json:"verdict"`
	Reasons      []string `json:"reasons"`
	Disclaimer   string   `json:"disclaimer"`
}
