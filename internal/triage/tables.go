package triage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// defaultBaseScore applies to categories absent from the base score table.
const defaultBaseScore = 0.60

// genericKeywords stand in for categories that have no keyword list.
var genericKeywords = []string{
	"timeout", "null", "none", "500", "404", "failed", "exception",
	"not found", "crash", "connection",
}

// DefaultCategoryKeywords is used when no tables file is configured or it cannot be read.
var DefaultCategoryKeywords = map[models.Category][]string{
	models.CategoryFrontendUI: {
		"selector", "click", "visible", "xpath", "css", "button", "input",
		"ui", "element", "text not found", "locate",
	},
	models.CategoryBackendAPI: {
		"500", "404", "401", "timeout", "connection refused", "bad request",
		"response", "request", "endpoint", "api", "jsondecode", "serialization",
	},
	"network": {
		"timeout", "dns", "connection reset", "connection refused",
		"host unreachable", "network", "ssl", "certificate", "proxy",
	},
	"data_issue": {
		"null", "none", "nan", "constraint", "foreign key", "primary key",
		"index", "schema", "mismatch", "deserialization", "data",
	},
	"env_config": {
		"env", "environment", "config", "configuration", "variable",
		"missing dependency", "version mismatch", "path", "not found",
	},
	"test_code": {
		"assert", "fixture", "mock", "stub", "test setup", "teardown",
		"flaky", "race condition", "test code",
	},
	models.CategoryUnknown: {},
}

// DefaultBaseScores is the base confidence per category.
var DefaultBaseScores = map[models.Category]float64{
	models.CategoryFrontendUI: 0.82,
	models.CategoryBackendAPI: 0.80,
	"network":                 0.76,
	"data_issue":              0.78,
	"env_config":              0.72,
	"test_code":               0.68,
	models.CategoryUnknown:    0.40,
}

// Tables holds the category keyword lists and base scores used by the
// confidence scorer. A Tables value is immutable once built and safe to share
// between goroutines.
type Tables struct {
	keywords   map[models.Category][]string
	baseScores map[models.Category]float64
}

// NewTables copies the given maps into an immutable Tables value.
// Category keys are normalised to lower case; keywords are lower-cased.
func NewTables(keywords map[models.Category][]string, baseScores map[models.Category]float64) Tables {
	t := Tables{
		keywords:   make(map[models.Category][]string, len(keywords)),
		baseScores: make(map[models.Category]float64, len(baseScores)),
	}
	for cat, kws := range keywords {
		list := make([]string, 0, len(kws))
		for _, kw := range kws {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				list = append(list, kw)
			}
		}
		t.keywords[normalizeCategory(cat)] = list
	}
	for cat, score := range baseScores {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		t.baseScores[normalizeCategory(cat)] = score
	}
	return t
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	return NewTables(DefaultCategoryKeywords, DefaultBaseScores)
}

// Keywords returns a copy of the keyword list for a category. Categories
// without a list get the generic keyword set.
func (t Tables) Keywords(cat models.Category) []string {
	kws := t.keywords[normalizeCategory(cat)]
	if len(kws) == 0 {
		kws = genericKeywords
	}
	return append([]string(nil), kws...)
}

// BaseScore returns the configured base score for a category.
func (t Tables) BaseScore(cat models.Category) float64 {
	if s, ok := t.baseScores[normalizeCategory(cat)]; ok {
		return s
	}
	return defaultBaseScore
}

// tablesFile mirrors the on-disk layout. JSON files parse as YAML too.
type tablesFile struct {
	CategoryKeywords map[string][]string `yaml:"CATEGORY_KEYWORDS"`
	BaseScores       map[string]float64  `yaml:"base_scores"`
}

// LoadTables reads a YAML or JSON tables file. A section missing from the
// file keeps its default.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables file: %w", err)
	}

	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Tables{}, fmt.Errorf("parse tables file %s: %w", path, err)
	}

	keywords := DefaultCategoryKeywords
	if f.CategoryKeywords != nil {
		keywords = make(map[models.Category][]string, len(f.CategoryKeywords))
		for cat, kws := range f.CategoryKeywords {
			keywords[models.Category(cat)] = kws
		}
	}

	scores := DefaultBaseScores
	if f.BaseScores != nil {
		scores = make(map[models.Category]float64, len(f.BaseScores))
		for cat, s := range f.BaseScores {
			scores[models.Category(cat)] = s
		}
	}

	return NewTables(keywords, scores), nil
}

// LoadTablesOrDefault loads the tables file at path, falling back to the
// built-in tables when path is empty, missing or malformed.
func LoadTablesOrDefault(path string, logger *slog.Logger) Tables {
	if path == "" {
		return DefaultTables()
	}
	t, err := LoadTables(path)
	if err != nil {
		if logger != nil {
			level := slog.LevelWarn
			if errors.Is(err, fs.ErrNotExist) {
				level = slog.LevelDebug
			}
			logger.Log(context.Background(), level, "using default triage tables", "path", path, "error", err)
		}
		return DefaultTables()
	}
	return t
}

func normalizeCategory(c models.Category) models.Category {
	return models.Category(strings.ToLower(strings.TrimSpace(string(c))))
}
