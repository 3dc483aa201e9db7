// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Supported LLM providers.
const (
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

// Config holds the entire application configuration.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger" yaml:"logger"`
	GitHub       GitHubConfig       `mapstructure:"github" yaml:"github"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" yaml:"orchestrator"`
	Adapters     AdaptersConfig     `mapstructure:"adapters" yaml:"adapters"`
	Store        StoreConfig        `mapstructure:"store" yaml:"store"`
}

// LoggerConfig controls the zap logger set up by the observability package.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// GitHubConfig covers repository discovery and default-branch resolution.
type GitHubConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
	// RequestsPerSecond throttles search/metadata calls against the API.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	// PageSize is how many candidates one search page requests.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
	// PushedWithin restricts candidates to repositories pushed within this window.
	PushedWithin time.Duration `mapstructure:"pushed_within" yaml:"pushed_within"`
}

// OrchestratorConfig bounds the benchmark run itself.
type OrchestratorConfig struct {
	// MaxInFlight caps concurrent (tool, repository) invocations.
	MaxInFlight int `mapstructure:"max_in_flight" yaml:"max_in_flight"`
	// ToolTimeout is the per-invocation wall-clock budget.
	ToolTimeout time.Duration `mapstructure:"tool_timeout" yaml:"tool_timeout"`
}

// AdaptersConfig aggregates per-tool integration settings.
type AdaptersConfig struct {
	CBOMkit CBOMkitConfig `mapstructure:"cbomkit" yaml:"cbomkit"`
	Cdxgen  CdxgenConfig  `mapstructure:"cdxgen" yaml:"cdxgen"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
}

// CBOMkitConfig points at a running CBOMkit scanner instance.
type CBOMkitConfig struct {
	WebSocketURL string `mapstructure:"websocket_url" yaml:"websocket_url"`
	CBOMEndpoint string `mapstructure:"cbom_endpoint" yaml:"cbom_endpoint"`
}

// CdxgenConfig configures the command-line generator adapter.
type CdxgenConfig struct {
	Binary   string `mapstructure:"binary" yaml:"binary"`
	Language string `mapstructure:"language" yaml:"language"`
	WorkDir  string `mapstructure:"work_dir" yaml:"work_dir"`
}

// LLMConfig configures the language-model-based generator.
type LLMConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	// Endpoint overrides the provider's default chat-completions endpoint.
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	MaxElapsed  time.Duration `mapstructure:"max_elapsed" yaml:"max_elapsed"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
}

// StoreConfig controls where artifacts land.
type StoreConfig struct {
	// DataDir is the root for raw documents, run records and metrics.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// ReportsDir receives timestamped analysis directories.
	ReportsDir string `mapstructure:"reports_dir" yaml:"reports_dir"`
	// DatabaseURL, when set, enables the Postgres-backed metrics store in
	// addition to the filesystem store.
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`
}

// NewDefaultConfig returns a Config populated with working defaults. Values
// are overridden by config.yaml and CBOMBENCH_* environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "cbombench",
			MaxSize:     50,
			MaxBackups:  3,
			MaxAge:      14,
			Colors: ColorConfig{
				Debug:  "cyan",
				Info:   "green",
				Warn:   "yellow",
				Error:  "red",
				DPanic: "magenta",
				Panic:  "magenta",
				Fatal:  "magenta",
			},
		},
		GitHub: GitHubConfig{
			Token:             os.Getenv("GITHUB_TOKEN"),
			RequestsPerSecond: 1,
			PageSize:          50,
			PushedWithin:      365 * 24 * time.Hour,
		},
		Orchestrator: OrchestratorConfig{
			MaxInFlight: 3,
			ToolTimeout: 20 * time.Minute,
		},
		Adapters: AdaptersConfig{
			CBOMkit: CBOMkitConfig{
				WebSocketURL: "ws://localhost:8081/v1/scan/cbombench",
				CBOMEndpoint: "http://localhost:8081/api/v1/cbom/last/1",
			},
			Cdxgen: CdxgenConfig{
				Binary:   "cbom",
				Language: "java",
			},
			LLM: LLMConfig{
				Provider:    ProviderDeepSeek,
				Model:       "deepseek-chat",
				APIKey:      os.Getenv("DEEPSEEK_API_KEY"),
				APITimeout:  5 * time.Minute,
				MaxElapsed:  10 * time.Minute,
				Temperature: 0.1,
			},
		},
		Store: StoreConfig{
			DataDir:    "CBOMdata",
			ReportsDir: "Reports",
		},
	}
}

// Load unmarshals the viper state over the defaults and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the run loop cannot work with.
func (c *Config) Validate() error {
	if c.Orchestrator.MaxInFlight < 1 {
		return fmt.Errorf("orchestrator.max_in_flight must be >= 1, got %d", c.Orchestrator.MaxInFlight)
	}
	if c.Orchestrator.ToolTimeout <= 0 {
		return fmt.Errorf("orchestrator.tool_timeout must be positive, got %s", c.Orchestrator.ToolTimeout)
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("store.data_dir must not be empty")
	}
	switch c.Adapters.LLM.Provider {
	case ProviderDeepSeek, ProviderGemini:
	default:
		return fmt.Errorf("unknown llm provider %q, supported: [%s, %s]",
			c.Adapters.LLM.Provider, ProviderDeepSeek, ProviderGemini)
	}
	return nil
}
