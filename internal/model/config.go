package model

import "time"

// Config is the complete govsift configuration
type Config struct {
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Sampling SamplingConfig `yaml:"sampling" mapstructure:"sampling"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// SourceConfig controls the paginated source client
type SourceConfig struct {
	Endpoint           string        `yaml:"endpoint" mapstructure:"endpoint"`
	PageSize           int           `yaml:"page_size" mapstructure:"page_size"`
	MaxPages           int           `yaml:"max_pages" mapstructure:"max_pages"`
	MinRequestInterval time.Duration `yaml:"min_request_interval" mapstructure:"min_request_interval"`
	RetryMaxAttempts   int           `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryBackoffBase   time.Duration `yaml:"retry_backoff_base" mapstructure:"retry_backoff_base"`
	RespectRobots      bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// HTTPConfig controls the shared HTTP client
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig controls the in-memory page cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// SamplingConfig controls the sampling strategy controller
type SamplingConfig struct {
	Strategy          Strategy      `yaml:"strategy" mapstructure:"strategy"`
	HitRateFloor      float64       `yaml:"hit_rate_floor" mapstructure:"hit_rate_floor"`
	MinimumSampleSize int           `yaml:"minimum_sample_size" mapstructure:"minimum_sample_size"`
	EntityBudget      int           `yaml:"entity_budget" mapstructure:"entity_budget"`
	TimeBudget        time.Duration `yaml:"time_budget" mapstructure:"time_budget"`
	SeedHub           string        `yaml:"seed_hub,omitempty" mapstructure:"seed_hub"`
}

// OutputConfig controls operator-facing output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults. The politeness defaults
// (1s between requests) match what large wiki APIs ask of research tools.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			PageSize:           50,
			MaxPages:           0, // unlimited
			MinRequestInterval: time.Second,
			RetryMaxAttempts:   4,
			RetryBackoffBase:   500 * time.Millisecond,
			RespectRobots:      true,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "govsift/0.1 (+https://github.com/ppiankov/govsift)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		Sampling: SamplingConfig{
			Strategy:          StrategyRandom,
			HitRateFloor:      0.05,
			MinimumSampleSize: 30,
			EntityBudget:      500,
			TimeBudget:        30 * time.Minute,
		},
		Output: OutputConfig{},
	}
}
