// Package generator provides the description generators used by the triage
// engine: a local Ollama server or Anthropic's Messages API (directly or
// through AWS Bedrock).
package generator

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ShayCichocki/bugtriage/internal/triage"
)

// Provider names accepted in configuration.
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderNone      = "none"
)

// Config selects and configures a generator.
type Config struct {
	Provider  string
	URL       string
	Model     string
	Timeout   time.Duration
	MaxTokens int

	APIKey     string
	AWSRegion  string
	AWSProfile string
}

// New builds the generator named by cfg.Provider. It returns nil, nil for
// ProviderNone so the engine falls back to its placeholder description.
func New(cfg Config, logger *slog.Logger) (triage.Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOllama, "":
		return NewOllama(cfg.URL,
			WithOllamaTimeout(cfg.Timeout),
			WithOllamaMaxTokens(cfg.MaxTokens),
			WithOllamaLogger(logger),
		), nil
	case ProviderAnthropic, ProviderBedrock:
		a, err := NewAnthropic(AnthropicConfig{
			Model:         cfg.Model,
			APIKey:        cfg.APIKey,
			UseAWSBedrock: strings.EqualFold(cfg.Provider, ProviderBedrock),
			AWSRegion:     cfg.AWSRegion,
			AWSProfile:    cfg.AWSProfile,
			MaxTokens:     cfg.MaxTokens,
			Timeout:       cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}
