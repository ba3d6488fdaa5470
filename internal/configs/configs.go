package configs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/songzhibin97/tokenlens/internal/risk"
	"github.com/songzhibin97/tokenlens/internal/social"
)

type Config struct {
	// 基础配置
	LogLevel string `json:"log_level" yaml:"log_level"` // debug/info/warn/error
	Proxy    string `json:"proxy" yaml:"proxy"`         // 出站代理，写入 HTTP(S)_PROXY

	Server ServerConfig `json:"server" yaml:"server"`

	// 上游数据源
	Sources SourcesConfig `json:"sources" yaml:"sources"`

	// 熔断参数
	Breaker BreakerConfig `json:"breaker" yaml:"breaker"`

	// 社交提及校验
	Social social.Config `json:"social" yaml:"social"`

	// AI 模型参数
	AIConfig AIConfig `json:"ai_config" yaml:"ai_config"`

	// 评分参数
	Scoring risk.ScoringParameters `json:"scoring" yaml:"scoring"`

	// 密钥只从环境变量读取
	Secrets Secrets `json:"-" yaml:"-"`
}

type ServerConfig struct {
	Addr           string `json:"addr" yaml:"addr"`
	RequestTimeout string `json:"request_timeout" yaml:"request_timeout"` // 单次分析超时
}

type SourcesConfig struct {
	Timeout    string `json:"timeout" yaml:"timeout"`         // 单次 HTTP 请求超时
	RetryCount int    `json:"retry_count" yaml:"retry_count"` // 429/5xx 重试次数

	Metadata []string `json:"metadata" yaml:"metadata"` // 元数据源顺序
	Market   []string `json:"market" yaml:"market"`     // 行情源顺序

	SolscanURL     string `json:"solscan_url" yaml:"solscan_url"`
	DexScreenerURL string `json:"dexscreener_url" yaml:"dexscreener_url"`
	JupiterURL     string `json:"jupiter_url" yaml:"jupiter_url"`
	SolanaRPC      string `json:"solana_rpc" yaml:"solana_rpc"`

	ExaURL           string `json:"exa_url" yaml:"exa_url"`
	ExaNumResults    int    `json:"exa_num_results" yaml:"exa_num_results"`
	ExaQueryInterval string `json:"exa_query_interval" yaml:"exa_query_interval"`
}

type BreakerConfig struct {
	ConsecutiveFailures uint32 `json:"consecutive_failures" yaml:"consecutive_failures"`
	OpenTimeout         string `json:"open_timeout" yaml:"open_timeout"` // 熔断后多久半开
}

type AIConfig struct {
	Provider string `json:"provider" yaml:"provider"` // keyword 或 openai
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"` // 兼容 OpenAI 协议的地址，如 DeepSeek
}

type Secrets struct {
	ExaAPIKey     string `envconfig:"EXA_API_KEY" required:"true"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	SolscanAPIKey string `envconfig:"SOLSCAN_API_KEY"`
}

const (
	ProviderKeyword = "keyword"
	ProviderOpenAI  = "openai"
)

var knownSources = map[string][]string{
	"metadata": {"solscan", "dexscreener", "solanarpc"},
	"market":   {"dexscreener", "jupiter"},
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: "45s",
		},
		Sources: SourcesConfig{
			Timeout:          "15s",
			RetryCount:       2,
			Metadata:         []string{"solscan", "dexscreener", "solanarpc"},
			Market:           []string{"dexscreener", "jupiter"},
			ExaNumResults:    10,
			ExaQueryInterval: "500ms",
		},
		Breaker: BreakerConfig{
			ConsecutiveFailures: 3,
			OpenTimeout:         "60s",
		},
		Social: social.DefaultConfig(),
		AIConfig: AIConfig{
			Provider: ProviderKeyword,
		},
		Scoring: risk.DefaultScoringParameters(),
	}
}

// Load 加载配置：默认值 -> JSON 文件 -> .env / 环境变量
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		configFile, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// known_accounts 整体替换默认名单，不做合并
		config.Social.KnownAccounts = nil
		if err := json.Unmarshal(configFile, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		if config.Social.KnownAccounts == nil {
			config.Social.KnownAccounts = social.DefaultConfig().KnownAccounts
		}
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	if err := envconfig.Process("", &config.Secrets); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	var errs []error

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	for name, value := range map[string]string{
		"server.request_timeout":     c.Server.RequestTimeout,
		"sources.timeout":            c.Sources.Timeout,
		"sources.exa_query_interval": c.Sources.ExaQueryInterval,
		"breaker.open_timeout":       c.Breaker.OpenTimeout,
	} {
		if _, err := parseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if c.Sources.RetryCount < 0 {
		errs = append(errs, errors.New("sources.retry_count must not be negative"))
	}
	if err := checkSources("metadata", c.Sources.Metadata); err != nil {
		errs = append(errs, err)
	}
	if err := checkSources("market", c.Sources.Market); err != nil {
		errs = append(errs, err)
	}

	switch c.AIConfig.Provider {
	case ProviderKeyword:
	case ProviderOpenAI:
		if c.Secrets.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("ai_config.provider openai requires OPENAI_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ai_config.provider %q", c.AIConfig.Provider))
	}

	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scoring: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func checkSources(concern string, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("sources.%s must list at least one source", concern)
	}
	for _, name := range names {
		ok := false
		for _, known := range knownSources[concern] {
			if name == known {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("sources.%s: unknown source %q", concern, name)
		}
	}
	return nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

func (c *Config) RequestTimeout() time.Duration {
	d, _ := parseDuration(c.Server.RequestTimeout)
	return d
}

func (c *Config) SourceTimeout() time.Duration {
	d, _ := parseDuration(c.Sources.Timeout)
	return d
}

func (c *Config) ExaQueryInterval() time.Duration {
	d, _ := parseDuration(c.Sources.ExaQueryInterval)
	return d
}

func (c *Config) BreakerTimeout() time.Duration {
	d, _ := parseDuration(c.Breaker.OpenTimeout)
	return d
}

// 空字符串视为 0，表示使用组件默认值
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
