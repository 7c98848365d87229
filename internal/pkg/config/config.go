package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is assembled once at startup
// and passed down; nothing reads the environment after Load returns.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	AMap      AMapConfig      `mapstructure:"amap"`
	Baidu     BaiduConfig     `mapstructure:"baidu"`
	Xfyun     XfyunConfig     `mapstructure:"xfyun"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// AnthropicConfig configures the language-model collaborator.
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// AMapConfig and BaiduConfig hold the per-provider REST credentials. A key
// may be empty: the corresponding provider then fails requests with a
// configuration error instead of blocking startup.
type AMapConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type BaiduConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// XfyunConfig holds the speech-recognition credentials.
type XfyunConfig struct {
	AppID     string `mapstructure:"app_id"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Host      string `mapstructure:"host"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
	// PlaceTTL is the TTL in seconds for cached place resolutions.
	PlaceTTL int `mapstructure:"place_ttl"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("amap.base_url", "https://restapi.amap.com")
	v.SetDefault("baidu.base_url", "https://api.map.baidu.com")
	v.SetDefault("xfyun.host", "iat-api.xfyun.cn")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.place_ttl", 300)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MAPNAV_SERVER_PORT → server.port
	v.SetEnvPrefix("MAPNAV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials also bind to their conventional unprefixed names so the
	// same env file works here and with the provider CLIs.
	_ = v.BindEnv("anthropic.api_key", "MAPNAV_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("anthropic.base_url", "MAPNAV_ANTHROPIC_BASE_URL", "ANTHROPIC_BASE_URL")
	_ = v.BindEnv("anthropic.model", "MAPNAV_ANTHROPIC_MODEL", "ANTHROPIC_MODEL")
	_ = v.BindEnv("amap.api_key", "MAPNAV_AMAP_API_KEY", "AMAP_MAPS_API_KEY")
	_ = v.BindEnv("baidu.api_key", "MAPNAV_BAIDU_API_KEY", "BAIDU_MAPS_API_KEY")
	_ = v.BindEnv("xfyun.app_id", "MAPNAV_XFYUN_APP_ID", "XFYUN_APPID")
	_ = v.BindEnv("xfyun.api_key", "MAPNAV_XFYUN_API_KEY", "XFYUN_API_KEY")
	_ = v.BindEnv("xfyun.api_secret", "MAPNAV_XFYUN_API_SECRET", "XFYUN_API_SECRET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// Provider map keys are deliberately not required here: a request selects one
// provider, and only that provider's credential matters.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Anthropic.APIKey == "" {
		errs = append(errs, "anthropic.api_key is required (ANTHROPIC_API_KEY)")
	}
	if c.Anthropic.MaxTokens <= 0 {
		errs = append(errs, "anthropic.max_tokens must be positive")
	}
	if c.AMap.BaseURL == "" {
		errs = append(errs, "amap.base_url is required")
	}
	if c.Baidu.BaseURL == "" {
		errs = append(errs, "baidu.base_url is required")
	}
	if c.Xfyun.Host == "" {
		errs = append(errs, "xfyun.host is required")
	}
	if c.Valkey.PlaceTTL < 0 {
		errs = append(errs, "valkey.place_ttl must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
