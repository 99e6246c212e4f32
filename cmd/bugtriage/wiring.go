package main

import (
	"fmt"

	"github.com/ShayCichocki/bugtriage/internal/classifier"
	"github.com/ShayCichocki/bugtriage/internal/config"
	"github.com/ShayCichocki/bugtriage/internal/generator"
	"github.com/ShayCichocki/bugtriage/internal/logging"
	"github.com/ShayCichocki/bugtriage/internal/retry"
	"github.com/ShayCichocki/bugtriage/internal/store"
	"github.com/ShayCichocki/bugtriage/internal/triage"
)

// openStore opens the configured result store.
func openStore(c *config.Config) (store.Store, error) {
	st, err := store.Open(c.Store.Driver, c.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	return st, nil
}

// buildEngine wires the triage engine from configuration. history and
// recorder are optional.
func buildEngine(c *config.Config, history triage.History, recorder triage.Recorder) (*triage.Engine, error) {
	logger := logging.New("triage")
	tables := triage.LoadTablesOrDefault(c.Triage.TablesPath, logger)

	rc := retry.DefaultConfig()
	rc.MaxRetries = c.Classifier.MaxRetries
	arbiter, err := classifier.New(
		classifier.WithTimeout(c.Classifier.Timeout),
		classifier.WithRetry(rc),
		classifier.WithLogger(logging.New("classifier")),
	)
	if err != nil {
		return nil, fmt.Errorf("create classifier client: %w", err)
	}

	gen, err := newGenerator(c)
	if err != nil {
		return nil, err
	}

	opts := []triage.Option{
		triage.WithArbiter(arbiter),
		triage.WithClassifierURL(c.Classifier.URL),
		triage.WithDefaultModel(c.Generator.Model),
		triage.WithLogger(logger),
	}
	if gen != nil {
		opts = append(opts, triage.WithGenerator(gen))
	}
	if history != nil {
		opts = append(opts, triage.WithHistory(history))
	}
	if recorder != nil {
		opts = append(opts, triage.WithRecorder(recorder))
	}
	return triage.NewEngine(tables, opts...), nil
}

func newGenerator(c *config.Config) (triage.Generator, error) {
	gc := generator.Config{
		Provider:   c.Generator.Provider,
		URL:        c.Generator.URL,
		Model:      c.Generator.Model,
		Timeout:    c.Generator.Timeout,
		MaxTokens:  c.Generator.MaxTokens,
		AWSRegion:  c.AWS.Region,
		AWSProfile: c.AWS.Profile,
	}
	if c.Generator.Provider == generator.ProviderAnthropic {
		key, err := config.GetAPIKey(c)
		if err != nil {
			return nil, fmt.Errorf("generator.provider is anthropic: %w", err)
		}
		gc.APIKey = key
	}

	gen, err := generator.New(gc, logging.New("generator"))
	if err != nil {
		return nil, fmt.Errorf("create description generator: %w", err)
	}
	return gen, nil
}
