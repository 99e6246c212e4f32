package triage

import (
	"context"
	"strings"
)

// fallbackLabel is used only if candidate generation somehow yields nothing.
const fallbackLabel = "Test Failure"

// classifierStackChars bounds the stack trace prefix sent for arbitration.
const classifierStackChars = 500

// assertionSignatures are checked in order; at most one label is produced.
var assertionSignatures = []struct {
	tokens []string
	label  string
}{
	{[]string{"tohavetitle", "to have title"}, "Assertion: Title Mismatch"},
	{[]string{"tobevisible", "to be visible"}, "Assertion: Element Not Visible"},
	{[]string{"tohaveurl", "to have url"}, "Assertion: URL Mismatch"},
	{[]string{"tohavetext", "to have text"}, "Assertion: Text Mismatch"},
	{[]string{"tohavecount", "to have count"}, "Assertion: Count Mismatch"},
	{[]string{"tocontaintext", "to contain text"}, "Assertion: Missing Text"},
	{[]string{"tobeenabled", "to be enabled"}, "Assertion: Element Not Enabled"},
	{[]string{"tobedisabled", "to be disabled"}, "Assertion: Element Not Disabled"},
	{[]string{"tobechecked", "to be checked"}, "Assertion: Checkbox Not Checked"},
	{[]string{"tohavevalue", "to have value"}, "Assertion: Value Mismatch"},
	{[]string{"tohaveattribute", "to have attribute"}, "Assertion: Attribute Mismatch"},
	{[]string{"tobeattached", "to be attached"}, "Assertion: Element Not Attached"},
}

// patternFamilies map keyword families to candidate labels, in output order.
var patternFamilies = []struct {
	tokens []string
	label  string
}{
	{[]string{"timeout", "timed out"}, "Timeout Error"},
	{[]string{"locator", "selector"}, "Element Locator Issue"},
	{[]string{"not found", "unable to locate"}, "Element Not Found"},
	{[]string{"navigation", "goto"}, "Navigation Error"},
	{[]string{"network", "request failed", "api"}, "Network Error"},
	{[]string{"screenshot", "video"}, "Media Capture Error"},
	{[]string{"click"}, "Click Action Failed"},
	{[]string{"type", "fill"}, "Input Action Failed"},
	{[]string{"hover"}, "Hover Action Failed"},
	{[]string{"expect", "assertion"}, "Assertion Failure"},
	{[]string{"frame"}, "Frame Error"},
	{[]string{"page closed", "page crashed"}, "Page Crash"},
}

// genericCandidates are used when no pattern family matches.
var genericCandidates = []string{"Test Failure", "UI Test Error", "Playwright Error"}

// AssertionLabel recognises a specific assertion type in the error message.
func AssertionLabel(errorMessage string) (string, bool) {
	em := strings.ToLower(errorMessage)
	for _, sig := range assertionSignatures {
		if containsAny(em, sig.tokens...) {
			return sig.label, true
		}
	}
	return "", false
}

// PatternLabels derives candidate labels from keyword families found in the
// error message and stack trace. It never returns an empty list.
func PatternLabels(errorMessage, stackTrace string) []string {
	text := strings.ToLower(errorMessage + " " + stackTrace)
	var labels []string
	for _, f := range patternFamilies {
		if containsAny(text, f.tokens...) {
			labels = append(labels, f.label)
		}
	}
	if len(labels) == 0 {
		return append([]string(nil), genericCandidates...)
	}
	return labels
}

// Candidates returns the assertion label (if any) followed by the pattern
// labels, deduplicated in first-seen order. The list is never empty.
func Candidates(errorMessage, stackTrace string) []string {
	var all []string
	if label, ok := AssertionLabel(errorMessage); ok {
		all = append(all, label)
	}
	all = append(all, PatternLabels(errorMessage, stackTrace)...)

	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, c := range all {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		out = append(out, fallbackLabel)
	}
	return out
}

// Arbitration is an external classifier's pick among the candidates.
type Arbitration struct {
	Label      string
	Confidence float64
}

// Arbiter asks an external classifier to choose the best candidate label.
type Arbiter interface {
	Arbitrate(ctx context.Context, endpoint, text string, candidates []string) (Arbitration, error)
}

// Outcome records how a label was resolved.
type Outcome int

const (
	// OutcomeLocal means no classifier was configured; the first candidate was used.
	OutcomeLocal Outcome = iota
	// OutcomeResolved means the classifier picked the label.
	OutcomeResolved
	// OutcomeUnavailable means the classifier failed; the first candidate was used.
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "local"
	}
}

// Resolution is the result of label resolution.
type Resolution struct {
	Label      string
	Candidates []string
	Outcome    Outcome
	// Probability is the classifier's confidence; set only for OutcomeResolved.
	Probability *float64
	// Err is the classifier failure behind OutcomeUnavailable.
	Err error
}

// ClassificationText is the text submitted to the classifier: the error
// message plus a bounded prefix of the stack trace.
func ClassificationText(errorMessage, stackTrace string) string {
	return errorMessage + "\n" + truncate(stackTrace, classifierStackChars)
}

// ResolveLabel builds the candidate set and, when a classifier endpoint is
// known, lets the arbiter pick from it. Any classifier failure, including a
// label outside the candidate set, falls back to the first candidate.
func (e *Engine) ResolveLabel(ctx context.Context, errorMessage, stackTrace, classifierURL string) Resolution {
	cands := Candidates(errorMessage, stackTrace)
	res := Resolution{Label: cands[0], Candidates: cands, Outcome: OutcomeLocal}

	endpoint := classifierURL
	if endpoint == "" {
		endpoint = e.classifierURL
	}
	if endpoint == "" || e.arbiter == nil {
		return res
	}

	a, err := e.arbiter.Arbitrate(ctx, endpoint, ClassificationText(errorMessage, stackTrace), cands)
	if err == nil && !contains(cands, a.Label) {
		err = &UnknownLabelError{Label: a.Label}
	}
	if err != nil {
		e.logger.Warn("label classifier unavailable, using first candidate",
			"endpoint", endpoint, "label", res.Label, "error", err)
		res.Outcome = OutcomeUnavailable
		res.Err = err
		return res
	}

	p := a.Confidence
	res.Label = a.Label
	res.Outcome = OutcomeResolved
	res.Probability = &p
	return res
}

// UnknownLabelError reports a classifier answer outside the candidate set.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return "classifier returned label outside candidate set: " + strings.TrimSpace(e.Label)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

