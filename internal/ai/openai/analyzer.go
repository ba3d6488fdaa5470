package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/songzhibin97/tokenlens/internal/ai"
	"github.com/songzhibin97/tokenlens/internal/models"
)

const systemPrompt = "You are a crypto social media analyst. " +
	"Label the sentiment of each post towards the token it mentions. Always answer in JSON."

// OpenAIClassifier implements the SentimentClassifier interface using an OpenAI-compatible chat API
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier creates a classifier; a non-empty baseURL targets DeepSeek or another compatible endpoint
func NewOpenAIClassifier(apiKey, model, baseURL string) *OpenAIClassifier {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// ClassifySentiment implements the SentimentClassifier interface
func (a *OpenAIClassifier) ClassifySentiment(ctx context.Context, texts []string) ([]models.Sentiment, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var posts strings.Builder
	for i, text := range texts {
		posts.WriteString(fmt.Sprintf("%d. %s\n", i+1, truncate(text, 600)))
	}

	prompt := fmt.Sprintf(`Classify the sentiment of each of the following %d posts about a Solana token.
Use 1 for positive or bullish, 0 for neutral, -1 for negative, bearish or scam warnings.

%s
Output format:
{
    "sentiments": [int, int, ...]
}
The array must contain exactly %d integers in the same order as the posts.`, len(texts), posts.String(), len(texts))

	resp, err := a.createChatCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to classify sentiment: %w", err)
	}

	var result struct {
		Sentiments []int `json:"sentiments"`
	}
	if err := json.Unmarshal([]byte(stripFence(resp)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment results: %w", err)
	}

	if len(result.Sentiments) != len(texts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ai.ErrLengthMismatch, len(result.Sentiments), len(texts))
	}

	out := make([]models.Sentiment, len(texts))
	for i, v := range result.Sentiments {
		switch {
		case v > 0:
			out[i] = models.SentimentPositive
		case v < 0:
			out[i] = models.SentimentNegative
		default:
			out[i] = models.SentimentNeutral
		}
	}
	return out, nil
}

// createChatCompletion is a helper function to make chat API calls
func (a *OpenAIClassifier) createChatCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0, // 分类任务需要稳定输出
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
