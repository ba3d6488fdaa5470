package data

import (
	"context"

	"github.com/songzhibin97/tokenlens/internal/models"
)

// MetadataFetcher retrieves on-chain token metadata
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, address string) (*models.TokenMetadata, error)
}

// MarketFetcher retrieves DEX market metrics
type MarketFetcher interface {
	FetchMarket(ctx context.Context, address string) (*models.MarketMetrics, error)
}

// SocialFetcher searches social media for mentions of the token.
// The metadata carries the address plus the name and symbol used to build queries.
type SocialFetcher interface {
	FetchSocial(ctx context.Context, metadata models.TokenMetadata) (*models.SocialMetrics, error)
}
