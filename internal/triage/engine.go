// Package triage turns raw automated-test failure reports into structured
// triage verdicts: category, severity, flakiness, confidence, label, title
// and description.
//
// The rule components (Extract, Classify, ClassifySeverity, DetectFlakiness,
// MapLabel, Candidates, Title) are pure functions. Engine wires them together
// with the optional external collaborators: a label Arbiter, a description
// Generator and a History of past failures.
package triage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/bugtriage/internal/logging"
	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// Generator produces free-text descriptions from a prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// History answers whether a failure with the same fingerprint was seen before.
type History interface {
	HasSimilar(ctx context.Context, fingerprint string) (bool, error)
}

// Recorder observes finished triage runs.
type Recorder interface {
	ObserveTriage(result *models.TriageResult, outcome Outcome, elapsed time.Duration)
}

// ErrGeneratorDisabled is reported in the description when no generator is configured.
var ErrGeneratorDisabled = errors.New("description generator not configured")

// descriptionFailedPrefix starts the description substituted for a failed generation.
const descriptionFailedPrefix = "Bug description generation failed: "

// Engine runs the triage pipeline. It holds only immutable tables and
// goroutine-safe collaborators, so one Engine serves concurrent calls.
type Engine struct {
	tables        Tables
	arbiter       Arbiter
	generator     Generator
	history       History
	recorder      Recorder
	classifierURL string
	defaultModel  string
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithArbiter sets the external label classifier.
func WithArbiter(a Arbiter) Option {
	return func(e *Engine) { e.arbiter = a }
}

// WithGenerator sets the description generator.
func WithGenerator(g Generator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithHistory enables the similar-past-bug signal.
func WithHistory(h History) Option {
	return func(e *Engine) { e.history = h }
}

// WithRecorder sets an observer for finished runs.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithClassifierURL sets the classifier endpoint used when a report names none.
func WithClassifierURL(url string) Option {
	return func(e *Engine) { e.classifierURL = url }
}

// WithDefaultModel sets the generator model used when a report names none.
func WithDefaultModel(model string) Option {
	return func(e *Engine) { e.defaultModel = model }
}

// WithLogger sets the logger for fallback warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine over the given tables.
func NewEngine(tables Tables, opts ...Option) *Engine {
	e := &Engine{
		tables: tables,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tables returns the engine's configuration tables.
func (e *Engine) Tables() Tables {
	return e.tables
}

// Triage produces a complete result for one report. Failures of the external
// collaborators degrade to local fallbacks and are never returned.
func (e *Engine) Triage(ctx context.Context, r models.FailureReport) *models.TriageResult {
	start := time.Now()

	text := ComposeFailureText(r)
	fields := Extract(r)
	category := Classify(text)
	severity := ClassifySeverity(r.TestName, r.ErrorMessage, category)
	flaky, reasons := DetectFlakiness(r.ErrorMessage, r.StackTrace)
	title := Title(text)

	var (
		resolution  Resolution
		description string
		similar     bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(r.Labels) > 0 {
			// The caller's vocabulary decides the label; the classifier is not consulted.
			cands := Candidates(r.ErrorMessage, r.StackTrace)
			resolution = Resolution{Label: cands[0], Candidates: cands, Outcome: OutcomeLocal}
			return nil
		}
		resolution = e.ResolveLabel(gctx, r.ErrorMessage, r.StackTrace, r.ClassifierURL)
		return nil
	})
	g.Go(func() error {
		description = e.describe(gctx, r.GeneratorModel, text)
		return nil
	})
	g.Go(func() error {
		similar = e.hasSimilar(gctx, r)
		return nil
	})
	_ = g.Wait()

	in := ScoreInput{
		Category:          category,
		ErrorMessage:      r.ErrorMessage,
		StackTrace:        r.StackTrace,
		HasSimilarPastBug: similar,
		Flaky:             flaky,
	}

	label := resolution.Label
	if len(r.Labels) > 0 {
		label = MapLabel(category, r.Labels)
	} else {
		in.ModelProbability = resolution.Probability
	}

	result := &models.TriageResult{
		Title:            title,
		Description:      description,
		Category:         category,
		Severity:         severity,
		Confidence:       e.tables.Score(in),
		Label:            label,
		CandidateLabels:  resolution.Candidates,
		IsFlaky:          flaky,
		FlakinessReasons: reasons,
		ExtractedFields:  fields,
		TestName:         r.TestName,
		SuiteName:        SuiteName(r.FilePath),
		FailureReason:    FailureReason(r.ErrorMessage),
		RawFailureText:   text,
	}

	if e.recorder != nil {
		e.recorder.ObserveTriage(result, resolution.Outcome, time.Since(start))
	}
	return result
}

func (e *Engine) describe(ctx context.Context, model, failureText string) string {
	if model == "" {
		model = e.defaultModel
	}

	var (
		desc string
		err  = ErrGeneratorDisabled
	)
	if e.generator != nil {
		desc, err = e.generator.Generate(ctx, model, DescriptionPrompt(failureText))
	}
	if err != nil {
		e.logger.Warn("description generation failed", "model", model, "error", err)
		desc = descriptionFailedPrefix + err.Error()
	}
	return SanitizeDescription(desc, failureText)
}

func (e *Engine) hasSimilar(ctx context.Context, r models.FailureReport) bool {
	if e.history == nil {
		return false
	}
	ok, err := e.history.HasSimilar(ctx, Fingerprint(r))
	if err != nil {
		e.logger.Warn("similar bug lookup failed", "test", r.TestName, "error", err)
		return false
	}
	return ok
}
