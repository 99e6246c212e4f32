package triage

import (
	"math"
	"strings"
	"testing"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

const testCategory models.Category = "widget"

func testTables() Tables {
	return NewTables(
		map[models.Category][]string{testCategory: {"alpha", "bravo", "charlie", "delta"}},
		map[models.Category]float64{testCategory: 0.5},
	)
}

func ptr(f float64) *float64 { return &f }

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInput
		want float64
	}{
		{"no coverage", ScoreInput{Category: testCategory}, 0.35},
		{"half coverage", ScoreInput{Category: testCategory, ErrorMessage: "alpha", StackTrace: "bravo"}, 0.5},
		{"full coverage", ScoreInput{Category: testCategory, ErrorMessage: "ALPHA bravo charlie delta"}, 0.65},
		{"model probability", ScoreInput{Category: testCategory, ErrorMessage: "alpha bravo", ModelProbability: ptr(0.9)}, 0.7},
		{"probability clamped", ScoreInput{Category: testCategory, ErrorMessage: "alpha bravo", ModelProbability: ptr(3)}, 0.75},
		{"similar past bug", ScoreInput{Category: testCategory, ErrorMessage: "alpha bravo", HasSimilarPastBug: true}, 0.57},
		{"flaky", ScoreInput{Category: testCategory, ErrorMessage: "alpha bravo", Flaky: true}, 0.4},
		{"unknown category uses default base and generic keywords", ScoreInput{Category: "nope"}, 0.45},
	}

	tables := testTables()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tables.Score(tt.in); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_Clamped(t *testing.T) {
	high := NewTables(nil, map[models.Category]float64{"hi": 5, "lo": -5})
	if got := high.Score(ScoreInput{Category: "hi"}); got != maxConfidence {
		t.Errorf("Score(hi) = %v, want %v", got, maxConfidence)
	}
	if got := high.Score(ScoreInput{Category: "lo"}); got != minConfidence {
		t.Errorf("Score(lo) = %v, want %v", got, minConfidence)
	}
}

func TestScore_Bounds(t *testing.T) {
	tables := DefaultTables()
	texts := []string{"", "timeout", "500 404 null none failed exception crash", strings.Repeat("click ", 50)}
	probs := []*float64{nil, ptr(0), ptr(1), ptr(-3), ptr(math.NaN())}

	for _, cat := range models.AllCategories {
		for _, text := range texts {
			for _, p := range probs {
				for _, flaky := range []bool{false, true} {
					got := tables.Score(ScoreInput{
						Category: cat, ErrorMessage: text, ModelProbability: p,
						HasSimilarPastBug: !flaky, Flaky: flaky,
					})
					if got < minConfidence || got > maxConfidence {
						t.Fatalf("Score(%s, %q) = %v out of range", cat, text, got)
					}
					if got != math.Round(got*100)/100 {
						t.Fatalf("Score(%s, %q) = %v not rounded", cat, text, got)
					}
				}
			}
		}
	}
}

func TestScore_CoverageMonotonic(t *testing.T) {
	tables := testTables()
	keywords := []string{"alpha", "bravo", "charlie", "delta"}

	prev := -1.0
	for i := 0; i <= len(keywords); i++ {
		got := tables.Score(ScoreInput{Category: testCategory, ErrorMessage: strings.Join(keywords[:i], " ")})
		if got <= prev {
			t.Fatalf("Score with %d keywords = %v, want > %v", i, got, prev)
		}
		prev = got
	}
}

func TestScore_FlakinessPenalty(t *testing.T) {
	tables := DefaultTables()
	msg := "psycopg2 connection timed out, retry 1 of 3"

	flaky, reasons := DetectFlakiness(msg, "")
	if !flaky || len(reasons) != 2 {
		t.Fatalf("DetectFlakiness() = %v, %v; want flaky with 2 reasons", flaky, reasons)
	}

	in := ScoreInput{Category: models.CategoryDatabase, ErrorMessage: msg}
	steady := tables.Score(in)
	in.Flaky = flaky
	penalised := tables.Score(in)

	if math.Abs(steady-penalised-flakinessPenalty) > 1e-9 {
		t.Errorf("flaky score = %v, steady score = %v; want difference %v", penalised, steady, flakinessPenalty)
	}
}

func TestScore_Deterministic(t *testing.T) {
	tables := DefaultTables()
	in := ScoreInput{Category: models.CategoryFrontendUI, ErrorMessage: "click on button failed", ModelProbability: ptr(0.42)}
	first := tables.Score(in)
	for i := 0; i < 100; i++ {
		if got := tables.Score(in); got != first {
			t.Fatalf("Score() = %v on run %d, want %v", got, i, first)
		}
	}
}
