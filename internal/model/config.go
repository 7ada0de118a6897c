package model

import "time"

// Config is the complete claimlens configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Embedding    EmbeddingConfig    `yaml:"embedding" mapstructure:"embedding"`
	Storage      StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Rules        RulesConfig        `yaml:"rules" mapstructure:"rules"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// LLMConfig configures the completion service
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, azure, anthropic, ollama, "" (disabled)
	Model       string  `yaml:"model" mapstructure:"model"`       // Model name, or deployment name for azure
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIVersion  string  `yaml:"api_version,omitempty" mapstructure:"api_version"` // azure only
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"`                   // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy     string  `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// EmbeddingConfig configures the embedding service
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// StorageConfig configures the claim store and policy index
type StorageConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"`         // sqlite, postgres
	ClaimsDSN       string `yaml:"claims_dsn" mapstructure:"claims_dsn"` // file path for sqlite, URL for postgres
	PolicyIndexPath string `yaml:"policy_index_path" mapstructure:"policy_index_path"`
}

// CacheConfig configures the embedding cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RulesConfig holds the verification thresholds
type RulesConfig struct {
	TimelyFilingDays           int     `yaml:"timely_filing_days" mapstructure:"timely_filing_days"`
	HighValueThreshold         float64 `yaml:"high_value_threshold" mapstructure:"high_value_threshold"`
	SemanticRelevanceThreshold float64 `yaml:"semantic_relevance_threshold" mapstructure:"semantic_relevance_threshold"`
	TranscriptExcerptChars     int     `yaml:"transcript_excerpt_chars" mapstructure:"transcript_excerpt_chars"`
	StrictResolution           bool    `yaml:"strict_resolution" mapstructure:"strict_resolution"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles outbound completion calls
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 disables
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr        string   `yaml:"addr" mapstructure:"addr"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "", // Disabled until configured
			Timeout:     60,
			MaxTokens:   2000,
			Temperature: 0.1,
		},
		Embedding: EmbeddingConfig{
			Provider:   "ollama",
			Model:      "all-minilm",
			Dimensions: 384,
			Timeout:    30,
		},
		Storage: StorageConfig{
			Driver:          "sqlite",
			ClaimsDSN:       "~/.claimlens/claims.db",
			PolicyIndexPath: "~/.claimlens/policies.db",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskDir:   "~/.claimlens/cache",
			DiskTTL:   7 * 24 * time.Hour,
		},
		Rules: RulesConfig{
			TimelyFilingDays:           90,
			HighValueThreshold:         1000,
			SemanticRelevanceThreshold: 0.45,
			TranscriptExcerptChars:     3000,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 0,
			BurstSize:         5,
		},
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
