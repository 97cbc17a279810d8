package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/env"
)

// Config represents the fitcheck configuration
type Config struct {
	BaseURL         string            `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	Timeout         int               `json:"timeout,omitempty" yaml:"timeout,omitempty"`       // milliseconds
	Retries         int               `json:"retries,omitempty" yaml:"retries,omitempty"`       // transport failures only
	RetryDelay      int               `json:"retryDelay,omitempty" yaml:"retryDelay,omitempty"` // milliseconds
	Rate            float64           `json:"rate,omitempty" yaml:"rate,omitempty"`             // requests per second, 0 = unlimited
	FollowRedirects *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy           string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Output          string            `json:"output,omitempty" yaml:"output,omitempty"`
	OutputFile      string            `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
	Verbose         *bool             `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	History         string            `json:"history,omitempty" yaml:"history,omitempty"` // sqlite://path or postgres://...
	Metrics         *MetricsConfig    `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Notify          *NotifyConfig     `json:"notify,omitempty" yaml:"notify,omitempty"`

	// Source is the file the config was read from, empty for defaults
	Source string `json:"-" yaml:"-"`
}

type MetricsConfig struct {
	Formats []string `json:"formats,omitempty" yaml:"formats,omitempty"` // json, prometheus, datadog
	File    string   `json:"file,omitempty" yaml:"file,omitempty"`
	DataDog *DataDog `json:"datadog,omitempty" yaml:"datadog,omitempty"`
}

type DataDog struct {
	APIKey string   `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	Site   string   `json:"site,omitempty" yaml:"site,omitempty"`
	Tags   []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type NotifyConfig struct {
	Services []string `json:"services,omitempty" yaml:"services,omitempty"` // slack
	On       string   `json:"on,omitempty" yaml:"on,omitempty"`             // always, failure, success, recovery
	Slack    *Slack   `json:"slack,omitempty" yaml:"slack,omitempty"`
}

type Slack struct {
	Webhook string `json:"webhook,omitempty" yaml:"webhook,omitempty"`
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	".fitcheck.yaml",
	"fitcheck.yaml",
	".fitcheck.yml",
	"fitcheck.yml",
	".fitcheck.config.json",
	"fitcheck.config.json",
}

// IsConfigFile reports whether path has one of the searched file names
func IsConfigFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range ConfigFilenames {
		if base == name {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from the specified path or searches the
// current directory for a config file
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. Fields the
// file leaves out keep their defaults.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	expanded, err := env.MustExpand(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	fileConfig := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal([]byte(expanded), fileConfig)
	default:
		err = json.Unmarshal([]byte(expanded), fileConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
	}

	if err := fileConfig.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	config := DefaultConfig().Merge(fileConfig)
	config.Source = path
	return config, nil
}

// Validate rejects negative numbers
func (c *Config) Validate() error {
	switch {
	case c.Timeout < 0:
		return fmt.Errorf("timeout must not be negative")
	case c.Retries < 0:
		return fmt.Errorf("retries must not be negative")
	case c.RetryDelay < 0:
		return fmt.Errorf("retryDelay must not be negative")
	case c.Rate < 0:
		return fmt.Errorf("rate must not be negative")
	case c.MaxRedirects < 0:
		return fmt.Errorf("maxRedirects must not be negative")
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.Retries > 0 {
		result.Retries = other.Retries
	}
	if other.RetryDelay > 0 {
		result.RetryDelay = other.RetryDelay
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.OutputFile != "" {
		result.OutputFile = other.OutputFile
	}
	if other.History != "" {
		result.History = other.History
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	if other.Metrics != nil {
		result.Metrics = other.Metrics
	}
	if other.Notify != nil {
		result.Notify = other.Notify
	}
	if other.Source != "" {
		result.Source = other.Source
	}

	return &result
}
