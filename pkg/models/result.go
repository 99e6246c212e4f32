package models

import "time"

// TriageResult is the structured verdict for one FailureReport.
type TriageResult struct {
	Title            string          `json:"bug_title"`
	Description      string          `json:"bug_description"`
	Category         Category        `json:"category"`
	Severity         Severity        `json:"severity"`
	Confidence       float64         `json:"triage_confidence"`
	Label            string          `json:"triage_label"`
	CandidateLabels  []string        `json:"candidate_labels"`
	IsFlaky          bool            `json:"is_flaky"`
	FlakinessReasons []string        `json:"flakiness_reasons"`
	TestName         string          `json:"test_name"`
	SuiteName        string          `json:"suite_name,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	RawFailureText   string          `json:"raw_failure_text"`

	// Extracted fields are flattened into the top level of the JSON result.
	ExtractedFields
}

// StoredResult is a TriageResult persisted by the result store.
type StoredResult struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Fingerprint string    `json:"fingerprint"`
	TriageResult
}

// ErrorResult is returned by the API when triage itself could not run.
// It keeps the response shape of a normal result.
func ErrorResult(reason string) *TriageResult {
	return &TriageResult{
		Title:            "API Internal Error",
		Description:      "Error while processing triage request: " + reason,
		Category:         CategoryUnknown,
		Severity:         SeverityMedium,
		Label:            "triage_error",
		CandidateLabels:  []string{},
		FlakinessReasons: []string{},
		ExtractedFields:  ExtractedFields{LineNumber: 1, FilePath: "unknown_file"},
	}
}
