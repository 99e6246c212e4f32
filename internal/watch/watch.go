// Package watch triages failure reports dropped into a directory.
//
// Every new or rewritten *.json report is triaged, stored and answered with
// a sibling <name>.triage.json file.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ShayCichocki/bugtriage/internal/logging"
	"github.com/ShayCichocki/bugtriage/internal/store"
	"github.com/ShayCichocki/bugtriage/internal/triage"
	"github.com/ShayCichocki/bugtriage/pkg/models"
)

const (
	reportExt = ".json"
	answerExt = ".triage.json"

	// DefaultSettle is how long a file must stay unchanged before it is read.
	DefaultSettle = 250 * time.Millisecond

	// minPoll bounds how often pending files are checked.
	minPoll = time.Millisecond
)

// ErrEmptyReport is returned for a report without test name or error message.
var ErrEmptyReport = errors.New("report has neither test_name nor error_message")

// ResultFunc is called after each processed report. res is nil when err is set.
type ResultFunc func(path string, res *models.StoredResult, err error)

// Watcher triages report files written into one directory.
type Watcher struct {
	dir      string
	engine   *triage.Engine
	store    store.Store
	settle   time.Duration
	backlog  bool
	onResult ResultFunc
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets the quiet period before a changed file is read.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithBacklog processes reports already in the directory that have no
// up-to-date answer file.
func WithBacklog(enabled bool) Option {
	return func(w *Watcher) { w.backlog = enabled }
}

// WithResultFunc registers a callback for processed reports.
func WithResultFunc(fn ResultFunc) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for dir. st may be nil, in which case results are
// only written next to the reports.
func New(dir string, engine *triage.Engine, st store.Store, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		engine:  engine,
		store:   st,
		settle:  DefaultSettle,
		logger:  logging.Discard(),
		pending: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IsReport reports whether name looks like a failure report rather than an answer.
func IsReport(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, reportExt) &&
		!strings.HasSuffix(base, answerExt) &&
		!strings.HasPrefix(base, ".")
}

// AnswerPath returns the sibling file a report's result is written to.
func AnswerPath(reportPath string) string {
	return strings.TrimSuffix(reportPath, reportExt) + answerExt
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create watch directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for reports", "dir", w.dir)

	if w.backlog {
		w.queueBacklog()
	}

	ticker := time.NewTicker(w.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && IsReport(event.Name) {
				w.touch(event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case <-ticker.C:
			for _, path := range w.settled() {
				res, err := w.ProcessFile(ctx, path)
				if err != nil {
					w.logger.Warn("report not triaged", "path", path, "error", err)
				}
				if w.onResult != nil {
					w.onResult(path, res, err)
				}
			}
		}
	}
}

func (w *Watcher) pollInterval() time.Duration {
	return max(w.settle/2, minPoll)
}

func (w *Watcher) touch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

// settled removes and returns the pending paths that have been quiet for
// the settle period.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	cutoff := time.Now().Add(-w.settle)
	for path, last := range w.pending {
		if last.Before(cutoff) {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

func (w *Watcher) queueBacklog() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("read backlog", "dir", w.dir, "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !IsReport(e.Name()) {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if answered(path) {
			continue
		}
		w.mu.Lock()
		w.pending[path] = time.Time{}
		w.mu.Unlock()
	}
}

// answered reports whether the answer file is at least as new as the report.
func answered(reportPath string) bool {
	report, err := os.Stat(reportPath)
	if err != nil {
		return false
	}
	answer, err := os.Stat(AnswerPath(reportPath))
	if err != nil {
		return false
	}
	return !answer.ModTime().Before(report.ModTime())
}

// ProcessFile triages one report file, stores the result and writes the
// answer file.
func (w *Watcher) ProcessFile(ctx context.Context, path string) (*models.StoredResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var report models.FailureReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(report.TestName) == "" && strings.TrimSpace(report.ErrorMessage) == "" {
		return nil, ErrEmptyReport
	}

	result := w.engine.Triage(ctx, report)

	stored := &models.StoredResult{
		CreatedAt:    time.Now().UTC(),
		Fingerprint:  triage.Fingerprint(report),
		TriageResult: *result,
	}
	if w.store != nil {
		stored, err = w.store.Create(ctx, stored.Fingerprint, result)
		if err != nil {
			return nil, fmt.Errorf("store result: %w", err)
		}
	}

	if err := writeAnswer(AnswerPath(path), stored); err != nil {
		return nil, err
	}
	w.logger.Info("report triaged", "path", path, "category", result.Category, "label", result.Label)
	return stored, nil
}

func writeAnswer(path string, res *models.StoredResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write answer: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write answer: %w", err)
	}
	return nil
}
