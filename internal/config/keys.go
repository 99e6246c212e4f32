package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// GetAPIKey returns the Anthropic API key for the anthropic generator.
// It checks in order: environment variable, config file.
func GetAPIKey(cfg *Config) (string, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}

	if cfg != nil && cfg.Anthropic.APIKey != "" {
		key := os.ExpandEnv(cfg.Anthropic.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, nil
		}
	}

	return "", ErrNoAPIKey
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 7 characters (sk-ant-) and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}
