package configs

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenlens/internal/social"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("EXA_API_KEY", "exa-key")
	t.Setenv("SOLSCAN_API_KEY", "solscan-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	path := writeConfig(t, `{
		"log_level": "debug",
		"server": {"addr": ":9090"},
		"sources": {"market": ["jupiter"], "exa_query_interval": "1s"},
		"social": {"known_accounts": {"SomeWhale": 250000}},
		"ai_config": {"provider": "openai", "model": "deepseek-chat", "base_url": "https://api.deepseek.com/v1"},
		"scoring": {"liquidity_cap": 200000}
	}`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", config.Server.Addr)
	assert.Equal(t, 45*time.Second, config.RequestTimeout(), "unset keys keep their defaults")
	assert.Equal(t, []string{"jupiter"}, config.Sources.Market)
	assert.Equal(t, []string{"solscan", "dexscreener", "solanarpc"}, config.Sources.Metadata)
	assert.Equal(t, time.Second, config.ExaQueryInterval())
	assert.Equal(t, ProviderOpenAI, config.AIConfig.Provider)
	assert.Equal(t, 200_000.0, config.Scoring.LiquidityCap)
	assert.Equal(t, 50_000.0, config.Scoring.VolumeCap)

	assert.Equal(t, map[string]int64{"SomeWhale": 250000}, config.Social.KnownAccounts, "file registry replaces the defaults")
	assert.NotContains(t, social.DefaultKnownAccounts, "SomeWhale", "defaults must not be mutated")

	assert.Equal(t, "exa-key", config.Secrets.ExaAPIKey)
	assert.Equal(t, "solscan-key", config.Secrets.SolscanAPIKey)
	assert.Equal(t, "openai-key", config.Secrets.OpenAIAPIKey)

	level, err := config.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_KnownAccounts(t *testing.T) {
	t.Setenv("EXA_API_KEY", "exa-key")

	tests := []struct {
		name    string
		content string
		want    map[string]int64
	}{
		{
			name:    "replaced",
			content: `{"social":{"known_accounts":{"myfriend":500000}}}`,
			want:    map[string]int64{"myfriend": 500000},
		},
		{
			name:    "emptied",
			content: `{"social":{"known_accounts":{}}}`,
			want:    map[string]int64{},
		},
		{
			name:    "absent keeps defaults",
			content: `{"social":{"relevance_threshold":80}}`,
			want:    social.DefaultKnownAccounts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := Load(writeConfig(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, config.Social.KnownAccounts)
		})
	}
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("EXA_API_KEY", "exa-key")

	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, ProviderKeyword, config.AIConfig.Provider)
	assert.Equal(t, 15*time.Second, config.SourceTimeout())
	assert.Equal(t, 60*time.Second, config.BreakerTimeout())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing exa key", func(t *testing.T) {
		t.Setenv("EXA_API_KEY", "")
		os.Unsetenv("EXA_API_KEY")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EXA_API_KEY")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("EXA_API_KEY", "exa-key")
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Setenv("EXA_API_KEY", "exa-key")
		_, err := Load(writeConfig(t, `{"server":`))
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "log_level",
		},
		{
			name:    "bad duration",
			modify:  func(c *Config) { c.Sources.Timeout = "fast" },
			wantErr: "sources.timeout",
		},
		{
			name:    "negative duration",
			modify:  func(c *Config) { c.Server.RequestTimeout = "-1s" },
			wantErr: "server.request_timeout",
		},
		{
			name:    "unknown market source",
			modify:  func(c *Config) { c.Sources.Market = []string{"binance"} },
			wantErr: `unknown source "binance"`,
		},
		{
			name:    "metadata source used for market",
			modify:  func(c *Config) { c.Sources.Market = []string{"solscan"} },
			wantErr: "sources.market",
		},
		{
			name:    "empty metadata sources",
			modify:  func(c *Config) { c.Sources.Metadata = nil },
			wantErr: "sources.metadata",
		},
		{
			name:    "openai without key",
			modify:  func(c *Config) { c.AIConfig.Provider = ProviderOpenAI },
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "unknown provider",
			modify:  func(c *Config) { c.AIConfig.Provider = "claude" },
			wantErr: "unknown ai_config.provider",
		},
		{
			name:    "inverted bands",
			modify:  func(c *Config) { c.Scoring.HighRiskBelow = 80 },
			wantErr: "scoring",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			config.Secrets.ExaAPIKey = "exa-key"
			tt.modify(config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
