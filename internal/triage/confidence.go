package triage

import (
	"math"
	"strings"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

const (
	minConfidence = 0.05
	maxConfidence = 0.97

	coverageWeight    = 0.15
	similarBugBonus   = 0.07
	flakinessPenalty  = 0.10
	probabilityWeight = 0.5
)

// ScoreInput carries everything the confidence scorer reads.
type ScoreInput struct {
	Category     models.Category
	ErrorMessage string
	StackTrace   string

	// ModelProbability is the external classifier's confidence, if one answered.
	ModelProbability *float64
	// HasSimilarPastBug is set when the result store already holds a matching failure.
	HasSimilarPastBug bool
	// Flaky is the Flakiness Detector verdict for the same report.
	Flaky bool
}

// Score combines the category base score, keyword coverage, an optional
// external probability and the similar-bug and flakiness signals into a
// confidence in [0.05, 0.97] rounded to two decimals.
func (t Tables) Score(in ScoreInput) float64 {
	score := t.BaseScore(in.Category)

	if in.ModelProbability != nil {
		p := *in.ModelProbability
		if math.IsNaN(p) {
			p = 0
		}
		p = math.Max(0, math.Min(p, 1))
		score = probabilityWeight*score + (1-probabilityWeight)*p
	}

	hits, total := t.Coverage(in.Category, in.ErrorMessage, in.StackTrace)
	if total > 0 {
		coverage := float64(hits) / float64(total)
		score += coverageWeight * ((coverage - 0.5) * 2)
	}

	if in.HasSimilarPastBug {
		score += similarBugBonus
	}
	if in.Flaky {
		score -= flakinessPenalty
	}

	score = math.Max(minConfidence, math.Min(score, maxConfidence))
	return math.Round(score*100) / 100
}

// Coverage counts how many of the category's keywords appear in the error
// message and stack trace.
func (t Tables) Coverage(cat models.Category, errorMessage, stackTrace string) (hits, total int) {
	text := strings.ToLower(errorMessage) + " " + strings.ToLower(stackTrace)
	kws := t.Keywords(cat)
	for _, kw := range kws {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits, len(kws)
}
