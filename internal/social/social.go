package social

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/songzhibin97/tokenlens/internal/ai"
	"github.com/songzhibin97/tokenlens/internal/ai/keyword"
	"github.com/songzhibin97/tokenlens/internal/models"
)

const (
	DefaultRelevanceThreshold = 70
	DefaultNotableFollowers   = 100_000

	// engagement contributed by one neutral mention
	mentionEngagement = 10.0
)

// DefaultKnownAccounts registers influencer, exchange and ecosystem handles at the notable floor.
var DefaultKnownAccounts = func() map[string]int64 {
	handles := []string{
		"elonmusk", "stoolpresidente", "vitalikbuterin",
		"binance", "coinbase", "cz_binance", "krakenfx", "okx",
		"justinsuntron", "bgarlinghouse", "saylor", "novogratz",
		"altcoingordon", "whalechart", "thecryptolark", "cryptocobain",
		"pentosh1", "hsaka", "scottmelker", "cryptokaleo",
		"solana", "aeyakovenko", "rajgokal", "stepnofficial",
		"cointelegraph", "coindesk", "blockchain", "crypto",
	}
	m := make(map[string]int64, len(handles))
	for _, h := range handles {
		m[h] = DefaultNotableFollowers
	}
	return m
}()

type Config struct {
	RelevanceThreshold int              `json:"relevance_threshold" yaml:"relevance_threshold"`
	NotableFollowers   int64            `json:"notable_followers" yaml:"notable_followers"`
	KnownAccounts      map[string]int64 `json:"known_accounts" yaml:"known_accounts"` // handle -> followers
}

func DefaultConfig() Config {
	known := make(map[string]int64, len(DefaultKnownAccounts))
	for h, n := range DefaultKnownAccounts {
		known[h] = n
	}
	return Config{
		RelevanceThreshold: DefaultRelevanceThreshold,
		NotableFollowers:   DefaultNotableFollowers,
		KnownAccounts:      known,
	}
}

// Candidate is one raw search hit before verification.
type Candidate struct {
	Title       string
	URL         string
	Author      string
	Text        string
	PublishedAt string
}

func (c Candidate) content() string {
	return strings.ToLower(c.Title + " " + c.Text)
}

// Analyzer verifies search hits and turns them into SocialMetrics.
type Analyzer struct {
	cfg        Config
	known      map[string]int64
	classifier ai.SentimentClassifier
	fallback   *keyword.Classifier
	logger     *slog.Logger
}

func NewAnalyzer(cfg Config, classifier ai.SentimentClassifier, logger *slog.Logger) *Analyzer {
	if cfg.RelevanceThreshold <= 0 {
		cfg.RelevanceThreshold = DefaultRelevanceThreshold
	}
	if cfg.NotableFollowers <= 0 {
		cfg.NotableFollowers = DefaultNotableFollowers
	}
	if cfg.KnownAccounts == nil {
		cfg.KnownAccounts = DefaultKnownAccounts
	}

	known := make(map[string]int64, len(cfg.KnownAccounts))
	for h, n := range cfg.KnownAccounts {
		known[normalizeHandle(h)] = n
	}

	fallback := keyword.NewClassifier(nil, nil)
	if classifier == nil {
		classifier = fallback
	}

	return &Analyzer{
		cfg:        cfg,
		known:      known,
		classifier: classifier,
		fallback:   fallback,
		logger:     logger,
	}
}

// Analyze keeps relevant candidates, labels them and aggregates the metrics.
func (a *Analyzer) Analyze(ctx context.Context, metadata models.TokenMetadata, candidates []Candidate) models.SocialMetrics {
	var verified []models.Mention
	var kept []Candidate

	for _, c := range candidates {
		score := Relevance(c, metadata)
		if score < a.cfg.RelevanceThreshold {
			a.logger.Debug("rejected mention", "url", c.URL, "relevance", score)
			continue
		}
		kept = append(kept, c)
		verified = append(verified, models.Mention{
			Title:          c.Title,
			URL:            c.URL,
			Author:         c.Author,
			Text:           c.Text,
			PublishedAt:    c.PublishedAt,
			RelevanceScore: score,
		})
	}

	metrics := models.SocialMetrics{
		Mentions: len(verified),
		Accounts: []models.Account{},
		Items:    verified,
	}
	if len(verified) == 0 {
		return metrics
	}

	sentiments := a.classify(ctx, kept)

	handles := make(map[string]struct{})
	for i := range verified {
		verified[i].Sentiment = sentiments[i]
		metrics.EngagementScore += mentionEngagement * (1 + 0.5*float64(sentiments[i]))

		switch sentiments[i] {
		case models.SentimentPositive:
			metrics.PositiveMentions++
		case models.SentimentNegative:
			metrics.NegativeMentions++
		}

		for _, h := range ExtractHandles(kept[i]) {
			handles[h] = struct{}{}
		}
	}

	for h := range handles {
		followers := a.known[h]
		metrics.Accounts = append(metrics.Accounts, models.Account{
			Handle:    h,
			Followers: followers,
			Notable:   followers >= a.cfg.NotableFollowers,
		})
	}

	sort.Slice(metrics.Accounts, func(i, j int) bool {
		x, y := metrics.Accounts[i], metrics.Accounts[j]
		if x.Notable != y.Notable {
			return x.Notable
		}
		if x.Followers != y.Followers {
			return x.Followers > y.Followers
		}
		return x.Handle < y.Handle
	})

	return metrics
}

func (a *Analyzer) classify(ctx context.Context, kept []Candidate) []models.Sentiment {
	texts := make([]string, len(kept))
	for i, c := range kept {
		texts[i] = c.Title + "\n" + c.Text
	}

	sentiments, err := a.classifier.ClassifySentiment(ctx, texts)
	if err == nil && len(sentiments) == len(texts) {
		return sentiments
	}
	if err == nil {
		err = fmt.Errorf("%w: got %d, want %d", ai.ErrLengthMismatch, len(sentiments), len(texts))
	}

	a.logger.Warn("sentiment classifier failed, using keyword lists", "err", err)
	sentiments, _ = a.fallback.ClassifySentiment(ctx, texts)
	return sentiments
}

// Relevance scores how likely a hit really talks about this token.
// Without an address fragment or a symbol match a hit tops out at 50.
func Relevance(c Candidate, metadata models.TokenMetadata) int {
	content := c.content()
	words := splitWords(content)
	score := 0
	identified := false

	// 8 字符窗口，步长 4
	if addr := strings.ToLower(metadata.Address); len(addr) >= 8 {
		for i := 0; i+8 <= len(addr); i += 4 {
			if strings.Contains(content, addr[i:i+8]) {
				score += 50
				identified = true
				break
			}
		}
	}

	if sym := strings.ToLower(metadata.Symbol); sym != "" && sym != "unknown" {
		if strings.Contains(content, "$"+sym) || containsPhrase(words, sym) {
			score += 30
			identified = true
		}
	}

	// 名称只作为地址或符号命中后的加分项
	if name := strings.ToLower(strings.TrimSpace(metadata.Name)); identified && name != "" && name != "unknown" {
		if containsPhrase(words, name) {
			score += 20
		}
	}

	if containsPhrase(words, "pump") && (containsPhrase(words, "fun") || containsPhrase(words, "solana")) {
		score += 20
	}

	if isSocialURL(c.URL) {
		score += 20
	}

	if c.Author != "" {
		score += 10
	}

	return score
}

var handlePattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_])@([A-Za-z0-9_]+)`)

// ExtractHandles returns the lower-cased handles mentioned in or authoring a hit.
func ExtractHandles(c Candidate) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(h string) {
		h = normalizeHandle(h)
		if !validHandle(h) {
			return
		}
		if _, ok := seen[h]; ok {
			return
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}

	if h := handleFromURL(c.URL); h != "" {
		add(h)
	}
	if c.Author != "" {
		add(c.Author)
	}
	for _, m := range handlePattern.FindAllStringSubmatch(c.Title+" "+c.Text, -1) {
		add(m[1])
	}

	return out
}

// BuildQueries mirrors the searches a person would type on X for this token.
func BuildQueries(metadata models.TokenMetadata) []string {
	queries := []string{fmt.Sprintf(`site:x.com "%s"`, metadata.Address)}

	if name := strings.TrimSpace(metadata.Name); name != "" && !strings.EqualFold(name, "unknown") {
		queries = append(queries, fmt.Sprintf(`site:x.com "%s" Solana token`, name))
	}
	if sym := strings.TrimSpace(metadata.Symbol); sym != "" && !strings.EqualFold(sym, "unknown") {
		queries = append(queries, fmt.Sprintf(`site:x.com "$%s" Solana memecoin`, sym))
	}

	return queries
}

func isSocialURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range []string{"x.com", "twitter.com"} {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// handleFromURL reads the author from x.com/<handle>/status/<id>.
func handleFromURL(raw string) string {
	if !isSocialURL(raw) {
		return ""
	}
	u, _ := url.Parse(raw)
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 && parts[1] == "status" {
		return parts[0]
	}
	return ""
}

func normalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}

func validHandle(h string) bool {
	if h == "" || len(h) > 15 {
		return false
	}
	switch h {
	case "i", "home", "search", "explore", "hashtag":
		return false
	}
	for _, r := range h {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z') {
			return false
		}
	}
	return true
}

func splitWords(content string) []string {
	return strings.FieldsFunc(content, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// containsPhrase reports whether phrase appears as consecutive whole words.
func containsPhrase(words []string, phrase string) bool {
	want := splitWords(phrase)
	if len(want) == 0 {
		return false
	}
	for i := 0; i+len(want) <= len(words); i++ {
		match := true
		for j, w := range want {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
