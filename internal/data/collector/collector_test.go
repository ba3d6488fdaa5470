package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenlens/internal/data"
	"github.com/songzhibin97/tokenlens/internal/models"
)

const testAddress = "GBUxQFRXQjSPjkxymAUKPfbUbSpRY8Ui7az1HCxtpump"

type nopLogger struct{}

func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}

type fakeSource struct {
	name     string
	metadata *models.TokenMetadata
	market   *models.MarketMetrics
	social   *models.SocialMetrics
	err      error
	calls    int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchMetadata(ctx context.Context, address string) (*models.TokenMetadata, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	m := *f.metadata
	return &m, nil
}

func (f *fakeSource) FetchMarket(ctx context.Context, address string) (*models.MarketMetrics, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	m := *f.market
	return &m, nil
}

func (f *fakeSource) FetchSocial(ctx context.Context, metadata models.TokenMetadata) (*models.SocialMetrics, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s := *f.social
	return &s, nil
}

func TestMultiSourceCollector_FetchMetadata(t *testing.T) {
	t.Run("merges until complete", func(t *testing.T) {
		first := &fakeSource{name: "dexscreener", metadata: &models.TokenMetadata{Name: "Test Token", Symbol: "TEST"}}
		second := &fakeSource{name: "solanarpc", metadata: &models.TokenMetadata{Decimals: 6, Supply: "1000000"}}
		third := &fakeSource{name: "never", metadata: &models.TokenMetadata{Name: "Other"}}

		c := NewMultiSourceCollector(Sources{Metadata: []MetadataSource{first, second, third}}, nopLogger{})
		got, err := c.FetchMetadata(context.Background(), testAddress)
		require.NoError(t, err)

		assert.Equal(t, testAddress, got.Address)
		assert.Equal(t, "Test Token", got.Name)
		assert.Equal(t, "TEST", got.Symbol)
		assert.Equal(t, 6, got.Decimals)
		assert.Equal(t, "1000000", got.Supply)
		assert.Equal(t, "dexscreener+solanarpc", got.Source)
		assert.Equal(t, 0, third.calls)
	})

	t.Run("skips failing source", func(t *testing.T) {
		broken := &fakeSource{name: "solscan", err: errors.New("rate limited")}
		ok := &fakeSource{name: "dexscreener", metadata: &models.TokenMetadata{Name: "Test", Symbol: "TEST", Decimals: 9}}

		c := NewMultiSourceCollector(Sources{Metadata: []MetadataSource{broken, ok}}, nopLogger{})
		got, err := c.FetchMetadata(context.Background(), testAddress)
		require.NoError(t, err)
		assert.Equal(t, "dexscreener", got.Source)
	})

	t.Run("all sources fail", func(t *testing.T) {
		broken := &fakeSource{name: "solscan", err: errors.New("timeout")}
		empty := &fakeSource{name: "dexscreener", err: data.ErrNotFound}

		c := NewMultiSourceCollector(Sources{Metadata: []MetadataSource{broken, empty}}, nopLogger{})
		got, err := c.FetchMetadata(context.Background(), testAddress)
		assert.ErrorIs(t, err, data.ErrAllSourcesFailed)
		assert.Nil(t, got)
	})
}

func TestMultiSourceCollector_FetchMarket(t *testing.T) {
	t.Run("first non-zero source wins", func(t *testing.T) {
		zero := &fakeSource{name: "dexscreener", market: &models.MarketMetrics{}}
		priced := &fakeSource{name: "jupiter", market: &models.MarketMetrics{PriceUSD: 0.5}}

		c := NewMultiSourceCollector(Sources{Market: []MarketSource{zero, priced}}, nopLogger{})
		got, err := c.FetchMarket(context.Background(), testAddress)
		require.NoError(t, err)
		assert.Equal(t, 0.5, got.PriceUSD)
		assert.Equal(t, "jupiter", got.Source)
	})

	t.Run("zero result beats no result", func(t *testing.T) {
		zero := &fakeSource{name: "dexscreener", market: &models.MarketMetrics{}}
		broken := &fakeSource{name: "jupiter", err: errors.New("boom")}

		c := NewMultiSourceCollector(Sources{Market: []MarketSource{zero, broken}}, nopLogger{})
		got, err := c.FetchMarket(context.Background(), testAddress)
		require.NoError(t, err)
		assert.True(t, got.IsZero())
		assert.Equal(t, "dexscreener", got.Source)
	})

	t.Run("no sources", func(t *testing.T) {
		c := NewMultiSourceCollector(Sources{}, nopLogger{})
		_, err := c.FetchMarket(context.Background(), testAddress)
		assert.ErrorIs(t, err, data.ErrAllSourcesFailed)
	})
}

func TestMultiSourceCollector_FetchSocial(t *testing.T) {
	broken := &fakeSource{name: "first", err: errors.New("unauthorized")}
	ok := &fakeSource{name: "exa", social: &models.SocialMetrics{Mentions: 4, EngagementScore: 40}}

	c := NewMultiSourceCollector(Sources{Social: []SocialSource{broken, ok}}, nopLogger{})
	got, err := c.FetchSocial(context.Background(), models.TokenMetadata{Address: testAddress})
	require.NoError(t, err)
	assert.Equal(t, 4, got.Mentions)
	assert.Equal(t, "exa", got.Source)
}

func TestMultiSourceCollector_BreakerOpens(t *testing.T) {
	broken := &fakeSource{name: "dexscreener", err: errors.New("503")}
	c := NewMultiSourceCollector(Sources{Market: []MarketSource{broken}}, nopLogger{}, BreakerSettings{
		ConsecutiveFailures: 2,
		Interval:            time.Minute,
		Timeout:             time.Minute,
	})

	for i := 0; i < 5; i++ {
		_, err := c.FetchMarket(context.Background(), testAddress)
		assert.ErrorIs(t, err, data.ErrAllSourcesFailed)
	}

	// once open the breaker short-circuits without calling the source
	assert.Equal(t, 2, broken.calls)
	assert.Equal(t, gobreaker.StateOpen, c.breaker("dexscreener").State())
}

func TestMultiSourceCollector_NotFoundKeepsBreakerClosed(t *testing.T) {
	missing := &fakeSource{name: "dexscreener", err: data.ErrNotFound}
	c := NewMultiSourceCollector(Sources{Market: []MarketSource{missing}}, nopLogger{}, BreakerSettings{
		ConsecutiveFailures: 1,
		Interval:            time.Minute,
		Timeout:             time.Minute,
	})

	for i := 0; i < 3; i++ {
		_, _ = c.FetchMarket(context.Background(), testAddress)
	}

	assert.Equal(t, 3, missing.calls)
	assert.Equal(t, gobreaker.StateClosed, c.breaker("dexscreener").State())
}
