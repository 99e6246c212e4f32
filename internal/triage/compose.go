package triage

import (
	"strings"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// Field labels of the composed failure text.
const (
	fieldTestName     = "Test Name:"
	fieldFilePath     = "File Path:"
	fieldErrorMessage = "Error Message:"
	fieldStackTrace   = "Stack Trace:"
	fieldLogs         = "Logs:"
)

// ComposeFailureText lays a report out as the field-labelled text block the
// classifier, title generator and description prompt read.
func ComposeFailureText(r models.FailureReport) string {
	var b strings.Builder
	b.WriteString(fieldTestName + " " + r.TestName + "\n")
	b.WriteString(fieldFilePath + " " + r.FilePath + "\n")
	b.WriteString(fieldErrorMessage + " " + r.ErrorMessage + "\n")
	b.WriteString(fieldStackTrace + " " + r.StackTrace + "\n")
	b.WriteString(fieldLogs + " " + r.Logs)
	return strings.TrimSpace(b.String())
}

// fieldLine returns the trimmed remainder of the first line starting with label.
func fieldLine(failureText, label string) string {
	for _, line := range strings.Split(failureText, "\n") {
		if rest, ok := strings.CutPrefix(line, label); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
