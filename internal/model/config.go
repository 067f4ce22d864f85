package model

import "time"

// Config is the complete pipeline configuration.
//
// Hierarchy (highest to lowest priority): CLI flags, CITELENS_* environment
// variables, config file (~/.citelens/config.yaml), defaults.
type Config struct {
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Alerts    AlertConfig     `yaml:"alerts" json:"alerts"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// CacheConfig controls the in-memory result cache
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	TTL           time.Duration `yaml:"ttl" json:"ttl"`
	MaxEntries    int           `yaml:"max_entries" json:"max_entries"`
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

// HTTPConfig controls outbound HTTP behavior for all gateway calls
type HTTPConfig struct {
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	RetryAttempts  int           `yaml:"retry_attempts" json:"retry_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay" json:"retry_delay"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RatePerHost    float64       `yaml:"rate_per_host" json:"rate_per_host"`
	RateBurst      int           `yaml:"rate_burst" json:"rate_burst"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	HTTPProxy      string        `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy     string        `yaml:"https_proxy" json:"https_proxy"`
	NoProxy        string        `yaml:"no_proxy" json:"no_proxy"`
}

// ProvidersConfig holds per-provider endpoints and credentials. An empty
// credential set disables that provider only; it is never an error.
type ProvidersConfig struct {
	Moz    MozConfig    `yaml:"moz" json:"moz"`
	Ahrefs AhrefsConfig `yaml:"ahrefs" json:"ahrefs"`
	DOI    DOIConfig    `yaml:"doi" json:"doi"`
}

// MozConfig configures the primary domain-authority provider
type MozConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	AccessID  string `yaml:"access_id" json:"-"`
	SecretKey string `yaml:"secret_key" json:"-"`
}

// AhrefsConfig configures the fallback domain-authority provider
type AhrefsConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key" json:"-"`
}

// DOIConfig configures the DOI resolution registry
type DOIConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	MemoTTL time.Duration `yaml:"memo_ttl" json:"memo_ttl"`
}

// LLMConfig configures the text-generation collaborator
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // openai, anthropic, ollama, "" = disabled
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"api_key" json:"-"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// AlertConfig holds the monitoring thresholds. Each is individually
// configurable.
type AlertConfig struct {
	LowVerificationRate float64       `yaml:"low_verification_rate" json:"low_verification_rate"`
	HighErrorRate       float64       `yaml:"high_error_rate" json:"high_error_rate"`
	SlowResponse        time.Duration `yaml:"slow_response" json:"slow_response"`
	LowCacheHitRate     float64       `yaml:"low_cache_hit_rate" json:"low_cache_hit_rate"`
}

// OutputConfig controls CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           24 * time.Hour,
			MaxEntries:    1000,
			SweepInterval: 10 * time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
			UserAgent:     "Citelens/0.1 (+https://github.com/citelens/citelens)",
			RatePerHost:   2,
			RateBurst:     5,
			MaxBodyBytes:  2_000_000,
		},
		Providers: ProvidersConfig{
			Moz:    MozConfig{BaseURL: "https://lsapi.seomoz.com/v2"},
			Ahrefs: AhrefsConfig{BaseURL: "https://apiv2.ahrefs.com"},
			DOI: DOIConfig{
				BaseURL: "https://doi.org",
				MemoTTL: 30 * time.Minute,
			},
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Alerts: AlertConfig{
			LowVerificationRate: 0.5,
			HighErrorRate:       0.1,
			SlowResponse:        10 * time.Second,
			LowCacheHitRate:     0.3,
		},
	}
}
