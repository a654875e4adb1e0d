// Package config loads polimatch configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is constructed once at
// process start and passed by reference; nothing reads it through globals.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Matching  MatchingConfig  `yaml:"matching" mapstructure:"matching"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings and call gating.
type AnthropicConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	Model          string  `yaml:"model" mapstructure:"model"`
	MaxTokens      int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxConcurrent  int64   `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// MatchingConfig configures the entity resolution pipeline.
type MatchingConfig struct {
	// RuleAcceptThreshold is the minimum rule-based confidence accepted
	// without escalating to the model. Applied uniformly across domains.
	RuleAcceptThreshold float64 `yaml:"rule_accept_threshold" mapstructure:"rule_accept_threshold"`
	// MaxCandidates bounds the candidate list sent to the model.
	MaxCandidates int `yaml:"max_candidates" mapstructure:"max_candidates"`
	// MinPromoteConfidence is the default promotion confidence floor.
	MinPromoteConfidence float64 `yaml:"min_promote_confidence" mapstructure:"min_promote_confidence"`
	// RoleMapPath optionally points at a YAML file mapping committee role
	// titles to personal names for the current term.
	RoleMapPath string `yaml:"role_map_path" mapstructure:"role_map_path"`
	// AgenticMaxTurns bounds the tool-use loop of the agentic matcher.
	AgenticMaxTurns int `yaml:"agentic_max_turns" mapstructure:"agentic_max_turns"`
}

// ScrapeConfig configures the extraction boundary.
type ScrapeConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the status/trigger HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POLIMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a natural default still get an empty one so
	// AutomaticEnv can bind them during Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("matching.role_map_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.requests_per_sec", 2.0)
	v.SetDefault("anthropic.max_concurrent", 4)
	// 0.8 accepts honorific-stripped rule matches (0.85) without a model call.
	v.SetDefault("matching.rule_accept_threshold", 0.8)
	v.SetDefault("matching.max_candidates", 20)
	v.SetDefault("matching.min_promote_confidence", 0.7)
	v.SetDefault("matching.agentic_max_turns", 5)
	v.SetDefault("scrape.timeout_secs", 30)

	// Read config file (optional)
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
