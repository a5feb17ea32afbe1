// Package config loads and resolves tsugix's settings: which LLM
// provider, model, and endpoint to target; the safety/automation knobs
// (autoBackup, autoApply, autoRerun); and the retry/timeout/temperature
// tuning the pipeline runs with.
//
// A raw on-disk struct with *int/*float64 optional fields is decoded,
// then merged onto hardcoded defaults with environment variables taking
// final precedence, tracking each field's ValueSource for "tsugix
// config" diagnostics. The primary format is JSON; a .tsugix.yaml
// variant is read when no .tsugix.json exists.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// HomeEnv overrides the resolved tsugix home directory, mainly for
	// test isolation.
	HomeEnv       = "TSUGIX_HOME"
	configFileEnv = "TSUGIX_CONFIG"

	homeDirName    = ".tsugix"
	jsonFileName   = ".tsugix.json"
	yamlFileName   = ".tsugix.yaml"
	globalFileName = "config.json"

	ProviderOpenAI    = "OpenAI"
	ProviderAnthropic = "Anthropic"

	DefaultProvider    = ProviderOpenAI
	DefaultModel       = "gpt-4o"
	DefaultMaxTokens   = 8000
	DefaultAutoBackup  = true
	DefaultAutoApply   = false
	DefaultAutoRerun   = false
	DefaultTimeout     = 30
	DefaultRetryCount  = 1
	DefaultTemperature = 0.2

	DefaultMaxConcurrent     = 5
	DefaultRequestsPerMinute = 60

	minTimeoutSeconds = 1
	maxTimeoutSeconds = 300
	minRetryCount     = 0
	maxRetryCount     = 10
	minTemperature    = 0.0
	maxTemperature    = 2.0
)

// ValueSource records where a resolved setting came from, for
// diagnostics ("tsugix config" style output).
type ValueSource int

const (
	SourceDefault ValueSource = iota
	SourceFile
	SourceEnv
)

func (s ValueSource) String() string {
	switch s {
	case SourceFile:
		return "file"
	case SourceEnv:
		return "env"
	default:
		return "default"
	}
}

// fileConfig is the raw shape of .tsugix.json / .tsugix.yaml / the
// global config.json.
type fileConfig struct {
	Provider             string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model                string   `json:"model,omitempty" yaml:"model,omitempty"`
	Endpoint             string   `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	MaxTokens            *int     `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
	AutoBackup           *bool    `json:"autoBackup,omitempty" yaml:"autoBackup,omitempty"`
	AutoApply            *bool    `json:"autoApply,omitempty" yaml:"autoApply,omitempty"`
	AutoRerun            *bool    `json:"autoRerun,omitempty" yaml:"autoRerun,omitempty"`
	Timeout              *int     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RetryCount           *int     `json:"retryCount,omitempty" yaml:"retryCount,omitempty"`
	CustomPromptTemplate string   `json:"customPromptTemplate,omitempty" yaml:"customPromptTemplate,omitempty"`
	Temperature          *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	RootDirectory        string   `json:"rootDirectory,omitempty" yaml:"rootDirectory,omitempty"`

	// Rate-limiter knobs. Older config files won't carry them, so they
	// default silently rather than requiring a schema bump.
	MaxConcurrent     *int `json:"maxConcurrent,omitempty" yaml:"maxConcurrent,omitempty"`
	RequestsPerMinute *int `json:"requestsPerMinute,omitempty" yaml:"requestsPerMinute,omitempty"`
}

// Config is the merged, resolved configuration the pipeline runs with.
type Config struct {
	Provider             string
	Model                string
	Endpoint             string
	APIKey               string
	MaxTokens            int
	AutoBackup           bool
	AutoApply            bool
	AutoRerun            bool
	TimeoutSeconds       int
	RetryCount           int
	CustomPromptTemplate string
	Temperature          float64
	RootDirectory        string
	MaxConcurrent        int
	RequestsPerMinute    int

	Sources map[string]ValueSource
}

// Load resolves configuration from (in ascending priority) hardcoded
// defaults, a config file, and environment variables. The config file
// is TSUGIX_CONFIG's path if set; otherwise .tsugix.json in workingDir,
// falling back to .tsugix.yaml in workingDir, falling back to
// ~/.tsugix/config.json. A malformed file falls back entirely to
// defaults rather than failing Load.
func Load(workingDir string) (*Config, error) {
	raw, err := loadFile(workingDir)
	if err != nil {
		return nil, err
	}
	return merge(raw), nil
}

func loadFile(workingDir string) (*fileConfig, error) {
	if path := os.Getenv(configFileEnv); path != "" {
		return readConfigFile(path)
	}

	if path := filepath.Join(workingDir, jsonFileName); fileExists(path) {
		return readConfigFile(path)
	}
	if path := filepath.Join(workingDir, yamlFileName); fileExists(path) {
		return readConfigFile(path)
	}
	if home, err := HomeDir(); err == nil {
		if path := filepath.Join(home, globalFileName); fileExists(path) {
			return readConfigFile(path)
		}
	}
	return nil, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// readConfigFile decodes path as JSON or YAML by extension. A parse
// failure is swallowed into "no file" (nil, nil): a malformed config
// file falls back entirely to defaults rather than aborting startup.
func readConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is either env-controlled or a fixed project/home-relative name
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg fileConfig
	var decodeErr error
	if filepath.Ext(path) == ".yaml" || filepath.Ext(path) == ".yml" {
		decodeErr = yaml.Unmarshal(data, &cfg)
	} else {
		decodeErr = json.Unmarshal(data, &cfg)
	}
	if decodeErr != nil {
		return nil, nil
	}
	return &cfg, nil
}

func merge(raw *fileConfig) *Config {
	cfg := &Config{
		Provider:          DefaultProvider,
		Model:             DefaultModel,
		MaxTokens:         DefaultMaxTokens,
		AutoBackup:        DefaultAutoBackup,
		AutoApply:         DefaultAutoApply,
		AutoRerun:         DefaultAutoRerun,
		TimeoutSeconds:    DefaultTimeout,
		RetryCount:        DefaultRetryCount,
		Temperature:       DefaultTemperature,
		MaxConcurrent:     DefaultMaxConcurrent,
		RequestsPerMinute: DefaultRequestsPerMinute,
		Sources:           map[string]ValueSource{},
	}

	if raw != nil {
		if raw.Provider != "" {
			cfg.Provider, cfg.Sources["provider"] = raw.Provider, SourceFile
		}
		if raw.Model != "" {
			cfg.Model, cfg.Sources["model"] = raw.Model, SourceFile
		}
		if raw.Endpoint != "" {
			cfg.Endpoint, cfg.Sources["endpoint"] = raw.Endpoint, SourceFile
		}
		if raw.MaxTokens != nil {
			cfg.MaxTokens, cfg.Sources["maxTokens"] = *raw.MaxTokens, SourceFile
		}
		if raw.AutoBackup != nil {
			cfg.AutoBackup, cfg.Sources["autoBackup"] = *raw.AutoBackup, SourceFile
		}
		if raw.AutoApply != nil {
			cfg.AutoApply, cfg.Sources["autoApply"] = *raw.AutoApply, SourceFile
		}
		if raw.AutoRerun != nil {
			cfg.AutoRerun, cfg.Sources["autoRerun"] = *raw.AutoRerun, SourceFile
		}
		if raw.Timeout != nil {
			cfg.TimeoutSeconds, cfg.Sources["timeout"] = clampInt(*raw.Timeout, minTimeoutSeconds, maxTimeoutSeconds), SourceFile
		}
		if raw.RetryCount != nil {
			cfg.RetryCount, cfg.Sources["retryCount"] = clampInt(*raw.RetryCount, minRetryCount, maxRetryCount), SourceFile
		}
		if raw.CustomPromptTemplate != "" {
			cfg.CustomPromptTemplate, cfg.Sources["customPromptTemplate"] = raw.CustomPromptTemplate, SourceFile
		}
		if raw.Temperature != nil {
			cfg.Temperature, cfg.Sources["temperature"] = clampFloat(*raw.Temperature, minTemperature, maxTemperature), SourceFile
		}
		if raw.RootDirectory != "" {
			cfg.RootDirectory, cfg.Sources["rootDirectory"] = raw.RootDirectory, SourceFile
		}
		if raw.MaxConcurrent != nil {
			cfg.MaxConcurrent, cfg.Sources["maxConcurrent"] = *raw.MaxConcurrent, SourceFile
		}
		if raw.RequestsPerMinute != nil {
			cfg.RequestsPerMinute, cfg.Sources["requestsPerMinute"] = *raw.RequestsPerMinute, SourceFile
		}
	}

	if key := apiKeyFromEnv(cfg.Provider); key != "" {
		cfg.APIKey = key
		cfg.Sources["api_key"] = SourceEnv
	}
	if provider := os.Getenv("TSUGIX_PROVIDER"); provider != "" {
		cfg.Provider, cfg.Sources["provider"] = provider, SourceEnv
		if key := apiKeyFromEnv(cfg.Provider); key != "" {
			cfg.APIKey = key
		}
	}
	if model := os.Getenv("TSUGIX_MODEL"); model != "" {
		cfg.Model, cfg.Sources["model"] = model, SourceEnv
	}

	return cfg
}

// apiKeyFromEnv reads the provider's credential from the environment,
// the only accepted source: OPENAI_API_KEY / ANTHROPIC_API_KEY.
func apiKeyFromEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HomeDir returns the tsugix home directory path (~/.tsugix, or
// TSUGIX_HOME if set). It does not create the directory.
func HomeDir() (string, error) {
	if override := os.Getenv(HomeEnv); override != "" {
		return filepath.Clean(override), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(home, homeDirName), nil
}

// GlobalConfigPath returns ~/.tsugix/config.json (or TSUGIX_HOME's
// equivalent).
func GlobalConfigPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, globalFileName), nil
}
