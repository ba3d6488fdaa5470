package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sony/gobreaker"

	"github.com/songzhibin97/tokenlens/internal/data"
	"github.com/songzhibin97/tokenlens/internal/models"
)

// MultiSourceCollector implements the data fetch interfaces by trying several sources per concern
type MultiSourceCollector struct {
	sources         Sources
	logger          Logger
	breakerSettings BreakerSettings

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

type Source interface {
	Name() string
}

type MetadataSource interface {
	Source
	data.MetadataFetcher
}

type MarketSource interface {
	Source
	data.MarketFetcher
}

type SocialSource interface {
	Source
	data.SocialFetcher
}

// Sources lists the upstreams per concern in priority order.
type Sources struct {
	Metadata []MetadataSource
	Market   []MarketSource
	Social   []SocialSource
}

func NewMultiSourceCollector(sources Sources, logger Logger, settings ...BreakerSettings) *MultiSourceCollector {
	bs := DefaultBreakerSettings()
	if len(settings) > 0 {
		bs = settings[0]
	}
	return &MultiSourceCollector{
		sources:         sources,
		logger:          logger,
		breakerSettings: bs,
		breakers:        make(map[string]*gobreaker.CircuitBreaker),
	}
}

// FetchMetadata merges fields from successive sources until name, symbol and decimals are known.
func (c *MultiSourceCollector) FetchMetadata(ctx context.Context, address string) (*models.TokenMetadata, error) {
	merged := models.TokenMetadata{Address: address}
	var used []string

	for _, source := range c.sources.Metadata {
		src := source
		result, err := call(c, src.Name(), func() (*models.TokenMetadata, error) {
			return src.FetchMetadata(ctx, address)
		})
		if err != nil {
			c.logger.Error("failed to collect token metadata", "source", src.Name(), "address", address, "err", err)
			continue
		}

		c.logger.Info("collected token metadata", "source", src.Name(), "address", address)
		if mergeMetadata(&merged, result) {
			used = append(used, src.Name())
		}

		if merged.Name != "" && merged.Symbol != "" && merged.Decimals > 0 {
			break
		}
	}

	if len(used) == 0 {
		return nil, fmt.Errorf("collect token metadata: %w", data.ErrAllSourcesFailed)
	}

	merged.Source = strings.Join(used, "+")
	return &merged, nil
}

// FetchMarket returns the first source reporting non-zero metrics.
func (c *MultiSourceCollector) FetchMarket(ctx context.Context, address string) (*models.MarketMetrics, error) {
	var fallback *models.MarketMetrics

	for _, source := range c.sources.Market {
		src := source
		result, err := call(c, src.Name(), func() (*models.MarketMetrics, error) {
			return src.FetchMarket(ctx, address)
		})
		if err != nil {
			c.logger.Error("failed to collect market data", "source", src.Name(), "address", address, "err", err)
			continue
		}

		result.Source = src.Name()
		if !result.IsZero() {
			c.logger.Info("collected market data", "source", src.Name(), "address", address)
			return result, nil
		}
		if fallback == nil {
			fallback = result
		}
	}

	if fallback != nil {
		return fallback, nil
	}

	return nil, fmt.Errorf("collect market data: %w", data.ErrAllSourcesFailed)
}

// FetchSocial returns the first successful social source.
func (c *MultiSourceCollector) FetchSocial(ctx context.Context, metadata models.TokenMetadata) (*models.SocialMetrics, error) {
	for _, source := range c.sources.Social {
		src := source
		result, err := call(c, src.Name(), func() (*models.SocialMetrics, error) {
			return src.FetchSocial(ctx, metadata)
		})
		if err != nil {
			c.logger.Error("failed to collect social metrics", "source", src.Name(), "address", metadata.Address, "err", err)
			continue
		}

		result.Source = src.Name()
		c.logger.Info("collected social metrics", "source", src.Name(), "address", metadata.Address, "mentions", result.Mentions)
		return result, nil
	}

	return nil, fmt.Errorf("collect social metrics: %w", data.ErrAllSourcesFailed)
}

// mergeMetadata fills empty fields of dst from src and reports whether anything was taken.
func mergeMetadata(dst *models.TokenMetadata, src *models.TokenMetadata) bool {
	took := false
	if dst.Name == "" && src.Name != "" {
		dst.Name = src.Name
		took = true
	}
	if dst.Symbol == "" && src.Symbol != "" {
		dst.Symbol = src.Symbol
		took = true
	}
	if dst.Decimals == 0 && src.Decimals > 0 {
		dst.Decimals = src.Decimals
		took = true
	}
	if dst.Supply == "" && src.Supply != "" {
		dst.Supply = src.Supply
		took = true
	}
	return took
}
