// Package config loads TOML configuration with APP_-prefixed environment
// variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the process-wide configuration root.
type Config struct {
	ServiceName string        `mapstructure:"service_name"`
	Version     string        `mapstructure:"version"`
	Environment string        `mapstructure:"environment"`
	HTTP        HTTPConfig    `mapstructure:"http"`
	Engine      EngineConfig  `mapstructure:"engine"`
	Logger      LoggerConfig  `mapstructure:"logger"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

// HTTPConfig controls the gin-based HTTP façade.
type HTTPConfig struct {
	Host               string  `mapstructure:"host" default:"0.0.0.0"`
	Port               int     `mapstructure:"port" default:"8080"`
	ReadTimeout        int     `mapstructure:"read_timeout" default:"30"`
	WriteTimeout       int     `mapstructure:"write_timeout" default:"30"`
	MaxConnections     int     `mapstructure:"max_connections" default:"1000"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" default:"500"`
	RateLimitBurst     float64 `mapstructure:"rate_limit_burst" default:"1000"`
}

// EngineConfig carries the matching engine's validation guardrails, one
// field per recognised configuration option.
type EngineConfig struct {
	SymbolLength    int      `mapstructure:"symbol_length" default:"16"`
	MaxGlobalOrders int      `mapstructure:"max_global_orders" default:"1000000"`
	MaxPriceLevels  int      `mapstructure:"max_price_levels" default:"5000"`
	MaxTagSize      int      `mapstructure:"max_tag_size" default:"64"`
	MinOrderPrice   float64  `mapstructure:"min_order_price" default:"0.00000001"`
	MaxOrderPrice   float64  `mapstructure:"max_order_price" default:"1000000000"`
	MinOrderQty     float64  `mapstructure:"min_order_qty" default:"0.00000001"`
	MaxOrderQty     float64  `mapstructure:"max_order_qty" default:"1000000000"`
	PriceBand       float64  `mapstructure:"price_band" default:"1.0"`
	TradedSymbols   []string `mapstructure:"traded_symbols"`
}

// LoggerConfig mirrors logging.Config's fields for TOML/env loading.
type LoggerConfig struct {
	Level      string `mapstructure:"level" default:"info"`
	Format     string `mapstructure:"format" default:"json"`
	Output     string `mapstructure:"output" default:"stdout"`
	FilePath   string `mapstructure:"file_path" default:"logs/app.log"`
	MaxSize    int    `mapstructure:"max_size" default:"100"`
	MaxBackups int    `mapstructure:"max_backups" default:"10"`
	MaxAge     int    `mapstructure:"max_age" default:"30"`
	Compress   bool   `mapstructure:"compress" default:"true"`
	WithCaller bool   `mapstructure:"with_caller" default:"true"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" default:"true"`
	Port    int    `mapstructure:"port" default:"9090"`
	Path    string `mapstructure:"path" default:"/metrics"`
}

// Load reads configPath as TOML, overlays APP_-prefixed environment
// variables, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithDefaults is Load, but a missing configPath falls back to
// setDefaults instead of erroring.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	_ = v.ReadInConfig()

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields and fills in environment defaults.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Engine.MinOrderQty <= 0 || c.Engine.MaxOrderQty <= c.Engine.MinOrderQty {
		return fmt.Errorf("invalid engine quantity bounds: min=%g max=%g", c.Engine.MinOrderQty, c.Engine.MaxOrderQty)
	}
	if c.Engine.MinOrderPrice <= 0 || c.Engine.MaxOrderPrice <= c.Engine.MinOrderPrice {
		return fmt.Errorf("invalid engine price bounds: min=%g max=%g", c.Engine.MinOrderPrice, c.Engine.MaxOrderPrice)
	}
	if c.Engine.PriceBand < 0 {
		return fmt.Errorf("price_band must be non-negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "matchingengine")
	v.SetDefault("version", "0.1.0")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)
	v.SetDefault("http.max_connections", 1000)
	v.SetDefault("http.rate_limit_per_second", 500)
	v.SetDefault("http.rate_limit_burst", 1000)

	v.SetDefault("engine.symbol_length", 16)
	v.SetDefault("engine.max_global_orders", 1000000)
	v.SetDefault("engine.max_price_levels", 5000)
	v.SetDefault("engine.max_tag_size", 64)
	v.SetDefault("engine.min_order_price", 0.00000001)
	v.SetDefault("engine.max_order_price", 1000000000)
	v.SetDefault("engine.min_order_qty", 0.00000001)
	v.SetDefault("engine.max_order_qty", 1000000000)
	v.SetDefault("engine.price_band", 1.0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}
