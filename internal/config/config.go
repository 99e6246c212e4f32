// Package config handles configuration loading and management for bugtriage.
// It supports XDG config paths, project-level overrides, a .env file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ShayCichocki/bugtriage/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. BUGTRIAGE_SERVER_ADDR.
const EnvPrefix = "BUGTRIAGE"

const projectConfigName = ".bugtriage.yaml"

// Config holds all configuration for bugtriage.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	AWS        AWSConfig        `mapstructure:"aws"`
	Store      StoreConfig      `mapstructure:"store"`
	Triage     TriageConfig     `mapstructure:"triage"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ClassifierConfig holds the external label classifier settings.
// An empty URL disables arbitration unless a report names its own classifier.
type ClassifierConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// GeneratorConfig holds description generator settings.
type GeneratorConfig struct {
	// Provider is one of ollama, anthropic, bedrock or none.
	Provider  string        `mapstructure:"provider"`
	URL       string        `mapstructure:"url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// AWSConfig holds the Bedrock credentials profile and region.
type AWSConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// StoreConfig selects the result store.
type StoreConfig struct {
	// Driver is sqlite or memory.
	Driver string `mapstructure:"driver"`
	// Path is the SQLite file. Empty means the XDG data directory.
	Path string `mapstructure:"path"`
}

// TriageConfig holds rule-engine settings.
type TriageConfig struct {
	// TablesPath points at a YAML or JSON file with CATEGORY_KEYWORDS and
	// base_scores. Empty means the built-in tables.
	TablesPath string `mapstructure:"tables_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// defaults lists every key with its default value. It is also the set of
// keys accepted by Set.
var defaults = map[string]any{
	"server.addr":          "127.0.0.1:8080",
	"server.read_timeout":  "30s",
	"server.write_timeout": "10m",

	"classifier.url":         "",
	"classifier.timeout":     "30s",
	"classifier.max_retries": 2,

	"generator.provider":   "ollama",
	"generator.url":        "http://localhost:11434",
	"generator.model":      "gemma:2b",
	"generator.timeout":    "300s",
	"generator.max_tokens": 1200,

	"anthropic.api_key": "",
	"aws.region":        "",
	"aws.profile":       "",

	"store.driver": "sqlite",
	"store.path":   "",

	"triage.tables_path": "",

	"log.level":  "info",
	"log.format": "text",
}

// secretKeys are masked when displayed.
var secretKeys = map[string]bool{
	"anthropic.api_key": true,
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (BUGTRIAGE_*, ANTHROPIC_API_KEY), including a .env file
// 2. Project config (.bugtriage.yaml in current directory or parent)
// 3. User config (~/.config/bugtriage/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	bindEnv(v)
	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file on top of the
// defaults and environment.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	bindEnv(v)
	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", EnvPrefix+"_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Generator.Provider {
	case "ollama", "anthropic", "bedrock", "none":
	default:
		return fmt.Errorf("generator.provider: unknown provider %q", c.Generator.Provider)
	}
	switch c.Store.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Classifier.MaxRetries < 0 {
		return fmt.Errorf("classifier.max_retries: must not be negative")
	}
	return nil
}

// Keys returns every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a known configuration key.
func IsKey(key string) bool {
	_, ok := defaults[key]
	return ok
}

// Values flattens cfg into key/value strings for display. Secrets are masked.
func (c *Config) Values() map[string]string {
	vals := map[string]string{
		"server.addr":            c.Server.Addr,
		"server.read_timeout":    c.Server.ReadTimeout.String(),
		"server.write_timeout":   c.Server.WriteTimeout.String(),
		"classifier.url":         c.Classifier.URL,
		"classifier.timeout":     c.Classifier.Timeout.String(),
		"classifier.max_retries": fmt.Sprint(c.Classifier.MaxRetries),
		"generator.provider":     c.Generator.Provider,
		"generator.url":          c.Generator.URL,
		"generator.model":        c.Generator.Model,
		"generator.timeout":      c.Generator.Timeout.String(),
		"generator.max_tokens":   fmt.Sprint(c.Generator.MaxTokens),
		"anthropic.api_key":      c.Anthropic.APIKey,
		"aws.region":             c.AWS.Region,
		"aws.profile":            c.AWS.Profile,
		"store.driver":           c.Store.Driver,
		"store.path":             c.Store.Path,
		"triage.tables_path":     c.Triage.TablesPath,
		"log.level":              c.Log.Level,
		"log.format":             c.Log.Format,
	}
	for k := range secretKeys {
		vals[k] = MaskAPIKey(vals[k])
	}
	return vals
}

// Set writes one key to the user config file, keeping the other keys that
// are already there.
func Set(key, value string) error {
	if !IsKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}

	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", configPath, err)
		}
	}

	v.Set(key, value)

	check := viper.New()
	setDefaults(check)
	if err := check.MergeConfigMap(v.AllSettings()); err != nil {
		return fmt.Errorf("merging config: %w", err)
	}
	if _, err := unmarshal(check); err != nil {
		return err
	}

	return v.WriteConfigAs(configPath)
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// getUserConfigDir returns the XDG config directory for bugtriage.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "bugtriage")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "bugtriage")
	}
	return filepath.Join(home, ".config", "bugtriage")
}

// findProjectConfig searches for .bugtriage.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, projectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
		},
		Classifier: ClassifierConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		},
		Generator: GeneratorConfig{
			Provider:  "ollama",
			URL:       "http://localhost:11434",
			Model:     "gemma:2b",
			Timeout:   300 * time.Second,
			MaxTokens: 1200,
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SecretKey reports whether a key's value is masked on display.
func SecretKey(key string) bool {
	return secretKeys[key]
}
