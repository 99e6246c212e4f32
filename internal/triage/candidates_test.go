package triage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssertionLabel(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"expect(page).toHaveTitle(expected) failed", "Assertion: Title Mismatch"},
		{"expected locator to be visible", "Assertion: Element Not Visible"},
		{"expect(page).toHaveURL('/home')", "Assertion: URL Mismatch"},
		{"toHaveText", "Assertion: Text Mismatch"},
		{"toHaveCount(3)", "Assertion: Count Mismatch"},
		{"toContainText", "Assertion: Missing Text"},
		{"toBeEnabled", "Assertion: Element Not Enabled"},
		{"toBeDisabled", "Assertion: Element Not Disabled"},
		{"toBeChecked", "Assertion: Checkbox Not Checked"},
		{"toHaveValue", "Assertion: Value Mismatch"},
		{"toHaveAttribute", "Assertion: Attribute Mismatch"},
		{"toBeAttached", "Assertion: Element Not Attached"},
	}
	for _, tt := range tests {
		got, ok := AssertionLabel(tt.msg)
		if !ok || got != tt.want {
			t.Errorf("AssertionLabel(%q) = %q, %v; want %q, true", tt.msg, got, ok, tt.want)
		}
	}

	if got, ok := AssertionLabel("plain failure"); ok || got != "" {
		t.Errorf("AssertionLabel(plain) = %q, %v; want \"\", false", got, ok)
	}
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name         string
		errorMessage string
		stackTrace   string
		want         []string
	}{
		{
			name:         "assertion first",
			errorMessage: "expect(page).toHaveTitle(expected) failed",
			want:         []string{"Assertion: Title Mismatch", "Assertion Failure"},
		},
		{
			name:         "families in order",
			errorMessage: "Timeout 30000ms exceeded waiting for locator('#submit') to be visible",
			want:         []string{"Assertion: Element Not Visible", "Timeout Error", "Element Locator Issue"},
		},
		{
			name:       "stack trace contributes",
			stackTrace: "page.click: Target page crashed",
			want:       []string{"Click Action Failed", "Page Crash"},
		},
		{
			name:         "generic triad",
			errorMessage: "boom",
			want:         []string{"Test Failure", "UI Test Error", "Playwright Error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidates(tt.errorMessage, tt.stackTrace)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Candidates() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCandidates_NonEmptyUnique(t *testing.T) {
	inputs := []string{
		"", "timeout timed out", "click click hover fill type",
		"expect toBeVisible to be visible assertion", "network api request failed frame",
	}
	for _, em := range inputs {
		for _, st := range inputs {
			got := Candidates(em, st)
			if len(got) == 0 {
				t.Fatalf("Candidates(%q, %q) is empty", em, st)
			}
			seen := map[string]bool{}
			for _, c := range got {
				if c == "" || seen[c] {
					t.Fatalf("Candidates(%q, %q) = %v has empty or duplicate entries", em, st, got)
				}
				seen[c] = true
			}
		}
	}
}

func TestClassificationText(t *testing.T) {
	got := ClassificationText("boom", strings.Repeat("s", 800))
	if want := "boom\n" + strings.Repeat("s", classifierStackChars); got != want {
		t.Errorf("ClassificationText() length = %d, want %d", len(got), len(want))
	}
}

type fakeArbiter struct {
	mu        sync.Mutex
	result    Arbitration
	err       error
	calls     int
	endpoint  string
	text      string
	candidate []string
}

func (f *fakeArbiter) Arbitrate(_ context.Context, endpoint, text string, candidates []string) (Arbitration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.endpoint = endpoint
	f.text = text
	f.candidate = candidates
	return f.result, f.err
}

func TestResolveLabel(t *testing.T) {
	const msg = "Timeout 30000ms exceeded waiting for locator('#submit')"
	first := Candidates(msg, "")[0]

	t.Run("no endpoint uses first candidate", func(t *testing.T) {
		arb := &fakeArbiter{result: Arbitration{Label: "Element Locator Issue"}}
		e := NewEngine(DefaultTables(), WithArbiter(arb))

		res := e.ResolveLabel(context.Background(), msg, "", "")
		if res.Outcome != OutcomeLocal || res.Label != first {
			t.Errorf("ResolveLabel() = %q (%s), want %q (local)", res.Label, res.Outcome, first)
		}
		if arb.calls != 0 {
			t.Errorf("arbiter called %d times, want 0", arb.calls)
		}
	})

	t.Run("endpoint without arbiter uses first candidate", func(t *testing.T) {
		e := NewEngine(DefaultTables(), WithClassifierURL("http://classifier"))
		res := e.ResolveLabel(context.Background(), msg, "", "")
		if res.Outcome != OutcomeLocal || res.Label != first {
			t.Errorf("ResolveLabel() = %q (%s), want %q (local)", res.Label, res.Outcome, first)
		}
	})

	t.Run("classifier picks a candidate", func(t *testing.T) {
		arb := &fakeArbiter{result: Arbitration{Label: "Element Locator Issue", Confidence: 0.8}}
		e := NewEngine(DefaultTables(), WithArbiter(arb), WithClassifierURL("http://global"))

		res := e.ResolveLabel(context.Background(), msg, "", "")
		if res.Outcome != OutcomeResolved || res.Label != "Element Locator Issue" {
			t.Errorf("ResolveLabel() = %q (%s), want resolved Element Locator Issue", res.Label, res.Outcome)
		}
		if res.Probability == nil || *res.Probability != 0.8 {
			t.Errorf("Probability = %v, want 0.8", res.Probability)
		}
		if arb.endpoint != "http://global" {
			t.Errorf("endpoint = %q, want global endpoint", arb.endpoint)
		}
		if diff := cmp.Diff(res.Candidates, arb.candidate); diff != "" {
			t.Errorf("arbiter candidates mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("report endpoint overrides global", func(t *testing.T) {
		arb := &fakeArbiter{result: Arbitration{Label: first}}
		e := NewEngine(DefaultTables(), WithArbiter(arb), WithClassifierURL("http://global"))

		e.ResolveLabel(context.Background(), msg, "", "http://report/triage")
		if arb.endpoint != "http://report/triage" {
			t.Errorf("endpoint = %q, want report endpoint", arb.endpoint)
		}
	})

	t.Run("unreachable classifier falls back", func(t *testing.T) {
		arb := &fakeArbiter{err: errors.New("dial tcp: connection refused")}
		e := NewEngine(DefaultTables(), WithArbiter(arb))

		res := e.ResolveLabel(context.Background(), msg, "", "http://127.0.0.1:1/predict")
		if res.Outcome != OutcomeUnavailable || res.Label != first {
			t.Errorf("ResolveLabel() = %q (%s), want %q (unavailable)", res.Label, res.Outcome, first)
		}
		if res.Err == nil {
			t.Error("Err = nil, want classifier error")
		}
	})

	t.Run("label outside candidates falls back", func(t *testing.T) {
		arb := &fakeArbiter{result: Arbitration{Label: "Made Up"}}
		e := NewEngine(DefaultTables(), WithArbiter(arb))

		res := e.ResolveLabel(context.Background(), msg, "", "http://classifier")
		if res.Outcome != OutcomeUnavailable || res.Label != first {
			t.Errorf("ResolveLabel() = %q (%s), want %q (unavailable)", res.Label, res.Outcome, first)
		}
		var unknown *UnknownLabelError
		if !errors.As(res.Err, &unknown) || unknown.Label != "Made Up" {
			t.Errorf("Err = %v, want UnknownLabelError", res.Err)
		}
	})

	t.Run("stack trace prefix is bounded", func(t *testing.T) {
		arb := &fakeArbiter{result: Arbitration{Label: first}}
		e := NewEngine(DefaultTables(), WithArbiter(arb))

		e.ResolveLabel(context.Background(), msg, strings.Repeat("x", 2000), "http://classifier")
		if want := len(msg) + 1 + classifierStackChars; len(arb.text) != want {
			t.Errorf("classification text length = %d, want %d", len(arb.text), want)
		}
	})
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{
		OutcomeLocal:       "local",
		OutcomeResolved:    "resolved",
		OutcomeUnavailable: "unavailable",
	} {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}
