// Package config loads application configuration from file and
// environment and installs the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Market    MarketConfig    `yaml:"market" mapstructure:"market"`
	Insights  InsightsConfig  `yaml:"insights" mapstructure:"insights"`
	Advisor   AdvisorConfig   `yaml:"advisor" mapstructure:"advisor"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int64    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnthropicConfig holds the language-model collaborator settings. The key
// is optional; without it every LLM-backed path uses its deterministic
// fallback.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MarketConfig configures the market-entry scorer.
type MarketConfig struct {
	DataPath string `yaml:"data_path" mapstructure:"data_path"`
	TopN     int    `yaml:"top_n" mapstructure:"top_n"`
}

// InsightsConfig configures the KPI analytics pipeline.
type InsightsConfig struct {
	ForecastPeriods    int     `yaml:"forecast_periods" mapstructure:"forecast_periods"`
	LowMarginThreshold float64 `yaml:"low_margin_threshold" mapstructure:"low_margin_threshold"`
	DiscountThreshold  float64 `yaml:"discount_threshold" mapstructure:"discount_threshold"`
	MaxAlerts          int     `yaml:"max_alerts" mapstructure:"max_alerts"`
}

// AdvisorConfig configures the advisor relay endpoint.
type AdvisorConfig struct {
	RateLimitRPS   float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CONSULTAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 512)
	v.SetDefault("anthropic.timeout_secs", 30)
	v.SetDefault("market.top_n", 10)
	v.SetDefault("insights.forecast_periods", 12)
	v.SetDefault("insights.low_margin_threshold", 0.15)
	v.SetDefault("insights.discount_threshold", 0.3)
	v.SetDefault("insights.max_alerts", 5)
	v.SetDefault("advisor.rate_limit_rps", 2.0)
	v.SetDefault("advisor.rate_limit_burst", 5)

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
