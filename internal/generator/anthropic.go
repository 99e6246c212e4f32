package generator

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/ShayCichocki/bugtriage/internal/triage"
)

const descriptionSystemPrompt = "You write clear, accurate bug reports for software teams."

// AnthropicConfig contains configuration for creating an Anthropic generator.
type AnthropicConfig struct {
	// Model is the Claude model to use. Defaults to Claude Haiku 4.5.
	Model string
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// UseAWSBedrock routes requests through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// MaxTokens bounds the description length.
	MaxTokens int
	// Timeout bounds one request.
	Timeout time.Duration
	// BaseURL overrides the API endpoint.
	BaseURL string
}

// Anthropic generates descriptions with Claude.
type Anthropic struct {
	inner     anthropic.Client
	model     anthropic.Model
	maxTokens int64
	bedrock   bool
	usage     *Usage
}

var _ triage.Generator = (*Anthropic)(nil)

// NewAnthropic creates a Claude-backed generator.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := anthropic.Model(cfg.Model)
	if !isClaudeModel(cfg.Model) {
		model = anthropic.ModelClaudeHaiku4_5
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = triage.DescriptionMaxTokens
	}

	return &Anthropic{
		inner:     anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		bedrock:   cfg.UseAWSBedrock,
		usage:     &Usage{},
	}, nil
}

// translateModelForBedrock converts Anthropic model names to Bedrock
// cross-region inference profiles: us.anthropic.{model}-v1:0.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeHaiku4_5:           "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeSonnet4_5:          "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}
	if m, ok := bedrockModels[model]; ok {
		return anthropic.Model(m)
	}
	return model
}

// isClaudeModel reports whether a requested model can be sent to Claude.
// Reports name local models such as "gemma:2b"; those use the configured model.
func isClaudeModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "claude") || strings.Contains(m, "anthropic.claude")
}

// Model returns the configured model name.
func (a *Anthropic) Model() anthropic.Model {
	return a.model
}

// Usage returns the token counter for this generator.
func (a *Anthropic) Usage() *Usage {
	return a.usage
}

// Generate sends prompt as a single user message.
func (a *Anthropic) Generate(ctx context.Context, model, prompt string) (string, error) {
	m := a.model
	if isClaudeModel(model) {
		m = anthropic.Model(model)
		if a.bedrock {
			m = translateModelForBedrock(m)
		}
	}

	resp, err := a.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     m,
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: descriptionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}

	a.usage.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var b strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(variant.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// Usage tracks token usage across generations.
type Usage struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// Add records token usage from one call.
func (u *Usage) Add(input, output int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inputTok += input
	u.outputTok += output
	u.calls++
}

// Total returns the total input and output tokens.
func (u *Usage) Total() (input, output int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inputTok, u.outputTok
}

// Calls returns the number of calls recorded.
func (u *Usage) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}
