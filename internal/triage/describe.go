package triage

import "strings"

// descriptionPrompt is filled with the composed failure text.
const descriptionPrompt = `You are a senior QA engineer writing a bug report.

Read the failed test details below and write a detailed, professional bug
description that helps developers understand and fix the problem quickly.
Write full sentences in natural language, as you would in a bug tracker.

Formatting rules:
- Do not paste the raw stack trace.
- Do not paste raw log lines.
- Do not simply repeat the error message; explain it in your own words.

Content:
- Roughly 160 to 220 words in 3 to 5 paragraphs separated by blank lines.
- Open with a one-sentence summary of the failure.
- Contrast the expected behaviour with the actual behaviour.
- Say where the fault most likely lives (UI, API endpoint, backend service, database).
- Propose a likely root cause based on the error message, stack trace and logs.
- Describe the impact on users or the system.
- Explain what the test was trying to validate when it failed.
- Close with a short suggestion of what the team should investigate.

FAILED TEST DETAILS:
`

// DescriptionMaxTokens is the generation budget requested for a description.
const DescriptionMaxTokens = 1200

// DescriptionPrompt returns the generator prompt for a composed failure text.
func DescriptionPrompt(failureText string) string {
	return descriptionPrompt + failureText + "\n"
}

// dumpPrefixes mark lines that only restate the failure report.
var dumpPrefixes = []string{
	fieldTestName, fieldFilePath, fieldErrorMessage, fieldStackTrace, fieldLogs,
	"Traceback (most recent call last):",
}

// SanitizeDescription removes lines from a generated description that merely
// repeat the failure text or look like raw stack or log output, and collapses
// runs of blank lines.
func SanitizeDescription(description, failureText string) string {
	failureLines := make(map[string]bool)
	for _, line := range strings.Split(failureText, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			failureLines[l] = true
		}
	}

	var out []string
	prevBlank := false
	for _, line := range strings.Split(description, "\n") {
		l := strings.TrimSpace(line)
		if l == "" {
			if !prevBlank {
				out = append(out, "")
			}
			prevBlank = true
			continue
		}
		if failureLines[l] || isDumpLine(l) {
			continue
		}
		out = append(out, l)
		prevBlank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isDumpLine(l string) bool {
	for _, p := range dumpPrefixes {
		if strings.HasPrefix(l, p) {
			return true
		}
	}
	lower := strings.ToLower(l)
	switch {
	case strings.Contains(lower, "traceback (most recent call last):"):
		return true
	case strings.Contains(lower, `file "`) && strings.Contains(lower, " line ") && strings.Contains(lower, " in "):
		return true
	case strings.HasPrefix(l, "[") && strings.Contains(l, "]") && containsAny(lower, "error", "debug"):
		return true
	}
	return false
}
