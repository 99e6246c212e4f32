package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ShayCichocki/bugtriage/internal/logging"
	"github.com/ShayCichocki/bugtriage/internal/triage"
	"github.com/ShayCichocki/bugtriage/internal/version"
)

const (
	// DefaultOllamaURL is the local Ollama server.
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultTimeout bounds one generation request.
	DefaultTimeout = 300 * time.Second

	generatePath = "/api/generate"
)

// OllamaOptions are the sampling options sent with each request.
type OllamaOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options OllamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Ollama generates text with a local Ollama server.
type Ollama struct {
	endpoint   string
	httpClient *http.Client
	options    OllamaOptions
	logger     *slog.Logger
}

var _ triage.Generator = (*Ollama)(nil)

// OllamaOption configures an Ollama client.
type OllamaOption func(*Ollama)

// WithOllamaHTTPClient overrides the HTTP client. The client is copied, so
// a later WithOllamaTimeout does not change the caller's value.
func WithOllamaHTTPClient(c *http.Client) OllamaOption {
	return func(o *Ollama) {
		if c != nil {
			hc := *c
			o.httpClient = &hc
		}
	}
}

// WithOllamaTimeout sets the request timeout. Zero keeps the default.
func WithOllamaTimeout(d time.Duration) OllamaOption {
	return func(o *Ollama) {
		if d > 0 {
			o.httpClient.Timeout = d
		}
	}
}

// WithOllamaMaxTokens sets num_predict. Zero keeps the default.
func WithOllamaMaxTokens(n int) OllamaOption {
	return func(o *Ollama) {
		if n > 0 {
			o.options.NumPredict = n
		}
	}
}

// WithOllamaLogger sets the logger.
func WithOllamaLogger(l *slog.Logger) OllamaOption {
	return func(o *Ollama) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOllama creates a client for the Ollama server at baseURL. Either the
// server root or the full /api/generate URL is accepted.
func NewOllama(baseURL string, opts ...OllamaOption) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	endpoint := strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(endpoint, generatePath) {
		endpoint += generatePath
	}

	o := &Ollama{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		options: OllamaOptions{
			NumPredict:  triage.DescriptionMaxTokens,
			Temperature: 0.7,
			TopP:        0.9,
			TopK:        40,
		},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate runs a single non-streaming generation.
func (o *Ollama) Generate(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		return "", fmt.Errorf("ollama generate: model is required")
	}
	body, err := json.Marshal(ollamaRequest{Model: model, Prompt: prompt, Options: o.options})
	if err != nil {
		return "", fmt.Errorf("ollama generate: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama generate: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate: do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama generate: read response: %w", err)
	}

	var out ollamaResponse
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		return "", fmt.Errorf("ollama generate: HTTP %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("ollama generate: decode response: %w", decodeErr)
	}

	o.logger.DebugContext(ctx, "ollama generation complete", "model", model, "elapsed", time.Since(start))
	return strings.TrimSpace(out.Response), nil
}
