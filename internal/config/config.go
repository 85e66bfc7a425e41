package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	PORT              = "PORT"
	METRICS_PORT      = "METRICS_PORT"
	MAX_RESPONSE_SIZE = "MAX_RESPONSE_SIZE"
	REQUEST_TIMEOUT   = "REQUEST_TIMEOUT"
	MODEL_TIMEOUT     = "MODEL_TIMEOUT"
	PROXY_BASE_URL    = "PROXY_BASE_URL"
	PROXY_TOKEN       = "PROXY_TOKEN"
	POLICY_URL        = "POLICY_URL"
	OPENAI_API_KEY    = "OPENAI_API_KEY"
	OPENAI_BASE_URL   = "OPENAI_BASE_URL"
	OPENAI_MODEL      = "OPENAI_MODEL"
	RATE_LIMIT_RPS    = "RATE_LIMIT_RPS"
	RATE_LIMIT_BURST  = "RATE_LIMIT_BURST"
	READ_TIMEOUT      = "READ_TIMEOUT"
	WRITE_TIMEOUT     = "WRITE_TIMEOUT"
	SHUTDOWN_TIMEOUT  = "SHUTDOWN_TIMEOUT"
	LOG_LEVEL         = "LOG_LEVEL"
	IS_DEV            = "IS_DEV"
)

var (
	// ErrMissingProxyToken is returned when no rendering proxy token is configured
	ErrMissingProxyToken = errors.New("PROXY_TOKEN must be set")
	// ErrMissingAPIKey is returned when no completion API key is configured
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY must be set")
	// ErrInvalidSetting is returned when a configured value is out of range
	ErrInvalidSetting = errors.New("invalid configuration value")
)

// Config is built once at startup and only read afterwards.
type Config struct {
	Port            string        `mapstructure:"PORT"`
	MetricsPort     string        `mapstructure:"METRICS_PORT"`
	MaxResponseSize int64         `mapstructure:"MAX_RESPONSE_SIZE"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ModelTimeout    time.Duration `mapstructure:"MODEL_TIMEOUT"`
	ProxyBaseURL    string        `mapstructure:"PROXY_BASE_URL"`
	ProxyToken      string        `mapstructure:"PROXY_TOKEN"`
	PolicyURL       string        `mapstructure:"POLICY_URL"`
	OpenAIAPIKey    string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel     string        `mapstructure:"OPENAI_MODEL"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
	ReadTimeout     time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	IsDev           bool          `mapstructure:"IS_DEV"`
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"port":         PORT,
	"metrics-port": METRICS_PORT,
	"log-level":    LOG_LEVEL,
	"dev":          IS_DEV,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(PORT, "8080")
	v.SetDefault(METRICS_PORT, "8081")
	v.SetDefault(MAX_RESPONSE_SIZE, 5*1024*1024)
	v.SetDefault(REQUEST_TIMEOUT, 30*time.Second)
	v.SetDefault(MODEL_TIMEOUT, 60*time.Second)
	v.SetDefault(PROXY_BASE_URL, "https://r.jina.ai")
	v.SetDefault(PROXY_TOKEN, "")
	v.SetDefault(POLICY_URL, "https://stripe.com/docs/treasury/marketing-treasury")
	v.SetDefault(OPENAI_API_KEY, "")
	v.SetDefault(OPENAI_BASE_URL, "https://api.openai.com/v1")
	v.SetDefault(OPENAI_MODEL, "gpt-3.5-turbo")
	v.SetDefault(RATE_LIMIT_RPS, 1.0)
	v.SetDefault(RATE_LIMIT_BURST, 3)
	v.SetDefault(READ_TIMEOUT, 15*time.Second)
	v.SetDefault(WRITE_TIMEOUT, 150*time.Second)
	v.SetDefault(SHUTDOWN_TIMEOUT, 10*time.Second)
	v.SetDefault(LOG_LEVEL, "info")
	v.SetDefault(IS_DEV, false)
}

// Load reads envFile when it exists, then the environment, then any flags
// that were explicitly set on flags. Later sources win.
func Load(envFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading %s: %w", envFile, err)
			}
		}
	}

	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.ProxyToken == "" {
		return ErrMissingProxyToken
	}
	if c.OpenAIAPIKey == "" {
		return ErrMissingAPIKey
	}
	if c.MaxResponseSize <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidSetting, MAX_RESPONSE_SIZE)
	}
	if c.RequestTimeout <= 0 || c.ModelTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidSetting)
	}
	for key, raw := range map[string]string{PROXY_BASE_URL: c.ProxyBaseURL, POLICY_URL: c.PolicyURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL", ErrInvalidSetting, key)
		}
	}
	return nil
}
