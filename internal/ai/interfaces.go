package ai

import (
	"context"
	"errors"

	"github.com/songzhibin97/tokenlens/internal/models"
)

// SentimentClassifier labels social media texts
type SentimentClassifier interface {
	// ClassifySentiment returns one sentiment per text, in order
	ClassifySentiment(ctx context.Context, texts []string) ([]models.Sentiment, error)
}

// ErrLengthMismatch is returned when a model labels a different number of texts than it was given.
var ErrLengthMismatch = errors.New("sentiment count does not match input")
