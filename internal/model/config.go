package model

import "time"

// Config carries every tunable the pipeline and the commands read. Values
// come from DefaultConfig, the config file and command flags, in that
// order.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls article fetching.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	ProxyURL     string        `yaml:"proxy_url" mapstructure:"proxy_url"`
}

// CacheConfig controls the fetched-article cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig controls batch processing.
type ConcurrencyConfig struct {
	Workers      int     `yaml:"workers" mapstructure:"workers"`
	PerDomainRPS float64 `yaml:"per_domain_rps" mapstructure:"per_domain_rps"`
	Burst        int     `yaml:"burst" mapstructure:"burst"`
}

// ExtractConfig controls the attribution engine and the category decision.
type ExtractConfig struct {
	Strategy    string `yaml:"strategy" mapstructure:"strategy"`         // role, proximity
	MatchMode   string `yaml:"match_mode" mapstructure:"match_mode"`     // surface, lemma, both
	MaxDistance int    `yaml:"max_distance" mapstructure:"max_distance"` // proximity threshold in characters
	Variant     string `yaml:"variant" mapstructure:"variant"`           // seria, gamberra
	TaxonomyDir string `yaml:"taxonomy_dir" mapstructure:"taxonomy_dir"` // override embedded term files
	RefdataDir  string `yaml:"refdata_dir" mapstructure:"refdata_dir"`   // override embedded reference tables
}

// LLMConfig controls the optional report summarizer.
type LLMConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model       string `yaml:"model" mapstructure:"model"`
	APIKey      string `yaml:"-" mapstructure:"-"` // environment only, never serialized
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	StrictNames bool   `yaml:"strict_names" mapstructure:"strict_names"`
}

// StoreConfig controls audit history persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      60 * time.Second,
			UserAgent:    "Veedor/0.1 (+https://github.com/prensalab/veedor)",
			MaxBodyBytes: 3_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:      4,
			PerDomainRPS: 1,
			Burst:        2,
		},
		Extract: ExtractConfig{
			Strategy:    "role",
			MatchMode:   "both",
			MaxDistance: 100,
			Variant:     "seria",
		},
		LLM: LLMConfig{
			StrictNames: true,
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
