package keyword

import (
	"context"
	"strings"
	"unicode"

	"github.com/songzhibin97/tokenlens/internal/models"
)

var (
	DefaultPositive = []string{
		"viral", "moon", "pump", "trending", "bullish", "gem", "diamond",
		"hold", "hodl", "rocket", "lambo", "ath", "breakout", "rally",
		"surge", "exploding", "fire", "huge", "massive",
	}
	DefaultNegative = []string{
		"scam", "rug", "dump", "bearish", "avoid", "dead", "rekt",
		"crash", "tanking", "falling", "losing", "panic", "sell",
		"warning", "caution", "sketchy", "sus",
	}
)

// Classifier matches whole words against fixed lists; a positive hit wins over a negative one.
type Classifier struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

func NewClassifier(positive, negative []string) *Classifier {
	if len(positive) == 0 {
		positive = DefaultPositive
	}
	if len(negative) == 0 {
		negative = DefaultNegative
	}
	return &Classifier{
		positive: toSet(positive),
		negative: toSet(negative),
	}
}

func (c *Classifier) ClassifySentiment(ctx context.Context, texts []string) ([]models.Sentiment, error) {
	out := make([]models.Sentiment, len(texts))
	for i, text := range texts {
		out[i] = c.Classify(text)
	}
	return out, nil
}

func (c *Classifier) Classify(text string) models.Sentiment {
	var pos, neg bool
	for _, w := range words(text) {
		if _, ok := c.positive[w]; ok {
			pos = true
			break
		}
		if _, ok := c.negative[w]; ok {
			neg = true
		}
	}

	switch {
	case pos:
		return models.SentimentPositive
	case neg:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, w := range list {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}
