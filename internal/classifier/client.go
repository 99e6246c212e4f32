// Package classifier is an HTTP client for the external label classifier.
//
// The classifier receives a failure text and a list of candidate labels and
// answers with the best label, its confidence and per-label scores.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ShayCichocki/bugtriage/internal/logging"
	"github.com/ShayCichocki/bugtriage/internal/retry"
	"github.com/ShayCichocki/bugtriage/internal/triage"
	"github.com/ShayCichocki/bugtriage/internal/version"
)

// DefaultTimeout bounds a single classifier request.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 512

// Request is the body sent to the predict endpoint.
type Request struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

// Prediction is the classifier's answer.
type Prediction struct {
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores,omitempty"`
}

// Client calls the label classifier. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	retry      retry.Config
	logger     *slog.Logger
}

var _ triage.Arbiter = (*Client)(nil)

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
	retry      *retry.Config
}

// New creates a classifier client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// Copy so the timeout never leaks into a caller's client.
	httpClient := &http.Client{}
	if cfg.httpClient != nil {
		hc := *cfg.httpClient
		httpClient = &hc
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.Discard()
	}

	rc := retry.DefaultConfig()
	if cfg.retry != nil {
		rc = *cfg.retry
	}

	return &Client{httpClient: httpClient, retry: rc, logger: logger}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets the per-request timeout. Zero keeps the HTTP client's own.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		if d < 0 {
			return fmt.Errorf("classifier: negative timeout %v", d)
		}
		cfg.timeout = d
		return nil
	}
}

// WithRetry overrides the retry policy.
func WithRetry(c retry.Config) Option {
	return func(cfg *clientConfig) error {
		cfg.retry = &c
		return nil
	}
}

// PredictURL derives the predict endpoint from a configured classifier URL.
// A URL whose path ends in /triage is pointed at /predict; a bare host gets
// /predict appended.
func PredictURL(endpoint string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("parse classifier url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("parse classifier url: %q is not absolute", endpoint)
	}
	switch p := strings.TrimSuffix(u.Path, "/"); {
	case p == "":
		u.Path = "/predict"
	case strings.HasSuffix(p, "/triage"):
		u.Path = strings.TrimSuffix(p, "/triage") + "/predict"
	}
	return u.String(), nil
}

// Predict asks the classifier to choose among labels for text.
func (c *Client) Predict(ctx context.Context, endpoint, text string, labels []string) (*Prediction, error) {
	target, err := PredictURL(endpoint)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(Request{Text: text, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("predict: marshal request: %w", err)
	}

	opts := retry.Options{
		Config:       c.retry,
		ErrorChecker: retry.TransientHTTP,
		Logger:       c.logger,
		APIName:      "classifier",
	}
	return retry.Execute(ctx, opts, func(int) (*Prediction, int, []byte, error) {
		return c.post(ctx, target, body)
	})
}

func (c *Client) post(ctx context.Context, target string, body []byte) (*Prediction, int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("predict: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	c.logger.DebugContext(ctx, "classifier request", "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("predict: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, nil, fmt.Errorf("predict: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		if msg == "" {
			msg = resp.Status
		}
		return nil, resp.StatusCode, respBody, newAPIError("predict", resp.StatusCode, msg)
	}

	var p Prediction
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, resp.StatusCode, respBody, fmt.Errorf("predict: decode response: %w", err)
	}
	if strings.TrimSpace(p.Label) == "" {
		return nil, resp.StatusCode, respBody, ErrEmptyLabel
	}
	return &p, resp.StatusCode, respBody, nil
}

// Arbitrate implements triage.Arbiter.
func (c *Client) Arbitrate(ctx context.Context, endpoint, text string, candidates []string) (triage.Arbitration, error) {
	p, err := c.Predict(ctx, endpoint, text, candidates)
	if err != nil {
		return triage.Arbitration{}, err
	}
	return triage.Arbitration{Label: p.Label, Confidence: p.Confidence}, nil
}
