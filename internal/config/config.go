package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is built once at
// startup and passed explicitly into constructors; nothing reads it from a
// global.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	SerpAPI  SerpAPIConfig  `yaml:"serpapi" mapstructure:"serpapi"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	Evidence EvidenceConfig `yaml:"evidence" mapstructure:"evidence"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Telegram TelegramConfig `yaml:"telegram" mapstructure:"telegram"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SerpAPIConfig holds search provider settings.
type SerpAPIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Engine  string `yaml:"engine" mapstructure:"engine"`
}

// LLMConfig holds language-model provider settings. An empty key for the
// selected provider disables the model path; classification then runs
// rules-only.
type LLMConfig struct {
	Provider     string  `yaml:"provider" mapstructure:"provider"`
	Model        string  `yaml:"model" mapstructure:"model"`
	OpenAIKey    string  `yaml:"openai_key" mapstructure:"openai_key"`
	AnthropicKey string  `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	Temperature  float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens    int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SearchConfig caps and paces the query phase.
type SearchConfig struct {
	MaxQueries          int     `yaml:"max_queries" mapstructure:"max_queries"`
	MaxResults          int     `yaml:"max_results" mapstructure:"max_results"`
	TimeoutSecs         int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec          float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	IncludeMarketplaces bool    `yaml:"include_marketplaces" mapstructure:"include_marketplaces"`
}

// ScrapeConfig bounds site fetching and the extracted corpus.
type ScrapeConfig struct {
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBodyBytes   int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HomepageChars  int     `yaml:"homepage_chars" mapstructure:"homepage_chars"`
	SecondaryChars int     `yaml:"secondary_chars" mapstructure:"secondary_chars"`
	TotalChars     int     `yaml:"total_chars" mapstructure:"total_chars"`
	HostRatePerSec float64 `yaml:"host_rate_per_sec" mapstructure:"host_rate_per_sec"`
}

// EvidenceConfig points at an optional vocabulary override file.
type EvidenceConfig struct {
	VocabPath string `yaml:"vocab_path" mapstructure:"vocab_path"`
}

// PipelineConfig caps per-run work.
type PipelineConfig struct {
	MaxCandidates int `yaml:"max_candidates" mapstructure:"max_candidates"`
	Workers       int `yaml:"workers" mapstructure:"workers"`
}

// TelegramConfig holds bot credentials.
type TelegramConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
}

// OutputConfig configures result persistence.
type OutputConfig struct {
	ResultsPath string `yaml:"results_path" mapstructure:"results_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int `yaml:"port" mapstructure:"port"`
	RunTimeoutSecs int `yaml:"run_timeout_secs" mapstructure:"run_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path means
// "config.yaml" is looked up in the working directory and in
// $HOME/.china-factories-bot; a non-empty path must name an existing file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.china-factories-bot")
	}

	// Environment
	v.SetEnvPrefix("CFB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "china-factories.db")
	v.SetDefault("serpapi.base_url", "https://serpapi.com/search")
	v.SetDefault("serpapi.engine", "google")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 300)
	v.SetDefault("llm.timeout_secs", 30)
	v.SetDefault("search.max_queries", 3)
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.rate_per_sec", 1.0)
	v.SetDefault("search.include_marketplaces", false)
	v.SetDefault("scrape.timeout_secs", 10)
	v.SetDefault("scrape.max_body_bytes", 512*1024)
	v.SetDefault("scrape.homepage_chars", 5000)
	v.SetDefault("scrape.secondary_chars", 3000)
	v.SetDefault("scrape.total_chars", 8000)
	v.SetDefault("scrape.host_rate_per_sec", 1.0)
	v.SetDefault("pipeline.max_candidates", 5)
	v.SetDefault("pipeline.workers", 3)
	v.SetDefault("output.results_path", "supplier_results.json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.run_timeout_secs", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// The file is optional when we are searching for one. An explicit path
	// that cannot be read surfaces as a plain path error, never as
	// ConfigFileNotFoundError, so it still fails here.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// RequireSearch fails when the search provider credential is missing. Runs
// cannot start without it, so commands check this before any pipeline work.
func (c *Config) RequireSearch() error {
	if strings.TrimSpace(c.SerpAPI.Key) == "" {
		return eris.New("config: serpapi.key is required (set CFB_SERPAPI_KEY)")
	}
	return nil
}

// RequireTelegram fails when the bot token is missing.
func (c *Config) RequireTelegram() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return eris.New("config: telegram.token is required (set CFB_TELEGRAM_TOKEN)")
	}
	return nil
}

// LLMKey returns the credential for the configured provider.
func (c *Config) LLMKey() string {
	switch c.LLM.Provider {
	case "anthropic":
		return c.LLM.AnthropicKey
	default:
		return c.LLM.OpenAIKey
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
