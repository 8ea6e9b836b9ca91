package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Browser BrowserConfig `mapstructure:"browser"`
	Extract ExtractConfig `mapstructure:"extract"`
	Chat    ChatConfig    `mapstructure:"chat"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// LLMConfig selects the completion provider. The api key is never logged.
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"` // openai | qwen | ark
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  float32       `mapstructure:"temperature"`
	TopP         float32       `mapstructure:"top_p"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DebugRequest bool          `mapstructure:"debug_request"`
}

type BrowserConfig struct {
	Mode       string        `mapstructure:"mode"` // chrome | http
	ChromePath string        `mapstructure:"chrome_path"`
	Headless   bool          `mapstructure:"headless"`
	UserAgent  string        `mapstructure:"user_agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SettleTime time.Duration `mapstructure:"settle_time"`
}

type ExtractConfig struct {
	MaxHTMLBytes    int           `mapstructure:"max_html_bytes"`
	CharThreshold   int           `mapstructure:"char_threshold"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	RejectOversized bool          `mapstructure:"reject_oversized"`
}

type ChatConfig struct {
	Debounce          time.Duration `mapstructure:"debounce"`
	MaxContentChars   int           `mapstructure:"max_content_chars"`
	ResponseCacheSize int           `mapstructure:"response_cache_size"`
	EstimateTokens    bool          `mapstructure:"estimate_tokens"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DefaultEndpoint        = "https://api.groq.com/openai/v1"
	DefaultModel           = "llama-3.3-70b-versatile"
	DefaultMaxTokens       = 32768
	DefaultTemperature     = 0.3
	DefaultMaxHTMLBytes    = 5 * 1024 * 1024
	DefaultCharThreshold   = 500
	DefaultCacheTTL        = 30 * time.Minute
	DefaultDebounce        = 100 * time.Millisecond
	DefaultMaxContentChars = 100_000
	DefaultResponseCache   = 50
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", time.Duration(0))
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.debug_request", false)
	v.SetDefault("llm.base_url", DefaultEndpoint)
	v.SetDefault("llm.model", DefaultModel)
	v.SetDefault("llm.max_tokens", DefaultMaxTokens)
	v.SetDefault("llm.temperature", DefaultTemperature)
	v.SetDefault("llm.top_p", 1.0)
	v.SetDefault("llm.timeout", time.Duration(0))

	v.SetDefault("browser.mode", "http")
	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.timeout", 45*time.Second)
	v.SetDefault("browser.settle_time", 2*time.Second)

	v.SetDefault("extract.max_html_bytes", DefaultMaxHTMLBytes)
	v.SetDefault("extract.char_threshold", DefaultCharThreshold)
	v.SetDefault("extract.cache_ttl", DefaultCacheTTL)
	v.SetDefault("extract.sweep_interval", time.Minute)
	v.SetDefault("extract.reject_oversized", false)

	v.SetDefault("chat.debounce", DefaultDebounce)
	v.SetDefault("chat.max_content_chars", DefaultMaxContentChars)
	v.SetDefault("chat.response_cache_size", DefaultResponseCache)
	v.SetDefault("chat.estimate_tokens", false)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the YAML file at configPath. A missing file is not an error:
// defaults and PAGECHAT_* environment variables still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PAGECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", configPath, err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// The file wins; the well-known provider variable is only a fallback.
	if c.LLM.APIKey == "" {
		if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
			c.LLM.APIKey = apiKey
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "qwen", "ark":
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider)
	}
	switch c.Browser.Mode {
	case "chrome", "http":
	default:
		return fmt.Errorf("unsupported browser mode: %s", c.Browser.Mode)
	}
	if c.Extract.MaxHTMLBytes <= 0 {
		return fmt.Errorf("extract.max_html_bytes must be positive")
	}
	if c.Chat.MaxContentChars <= 0 {
		return fmt.Errorf("chat.max_content_chars must be positive")
	}
	if c.Chat.ResponseCacheSize <= 0 {
		return fmt.Errorf("chat.response_cache_size must be positive")
	}
	if c.Chat.Debounce < 0 {
		return fmt.Errorf("chat.debounce must not be negative")
	}
	return nil
}
