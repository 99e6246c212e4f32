// Package models defines the data types shared by the triage pipeline,
// the result store and the HTTP API.
package models

// FailureReport is the input describing one failed automated test.
// The triage pipeline never mutates it.
type FailureReport struct {
	TestName     string `json:"test_name" yaml:"test_name"`
	FilePath     string `json:"file_path" yaml:"file_path"`
	ErrorMessage string `json:"error_message" yaml:"error_message"`
	StackTrace   string `json:"stack_trace" yaml:"stack_trace"`
	Logs         string `json:"logs,omitempty" yaml:"logs,omitempty"`

	// Labels is the caller's label vocabulary. When non-empty the final
	// label is always one of these entries.
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// ClassifierURL points at the external label classifier. Empty means
	// the globally configured classifier (if any) is used.
	ClassifierURL string `json:"bert_url,omitempty" yaml:"bert_url,omitempty"`
	// GeneratorModel selects the description model. Empty means the
	// configured default.
	GeneratorModel string `json:"llm_model,omitempty" yaml:"llm_model,omitempty"`
}

// ExtractedFields are the structured fields pulled out of a report's free text.
// Every field has a fallback: LineNumber is at least 1 and FilePath is never empty.
type ExtractedFields struct {
	LineNumber int    `json:"error_line_number"`
	FilePath   string `json:"error_file_path"`
	StackTrace string `json:"stack_trace"`
	LogSnippet string `json:"log_snippet"`
	Timestamp  string `json:"timestamp,omitempty"`
}
