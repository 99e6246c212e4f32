package triage

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

const (
	// MaxStackTraceChars caps the stack trace carried in a result.
	MaxStackTraceChars = 3000
	// MaxLogSnippetChars caps the log snippet carried in a result.
	MaxLogSnippetChars = 1000

	// maxPlausibleLine rejects numbers that are almost certainly not line numbers.
	maxPlausibleLine = 10000

	unknownFile = "unknown_file"
)

// source identifies which report field a rule reads.
type source int

const (
	fromStackTrace source = iota
	fromErrorMessage
	fromLogs
)

func (s source) text(r models.FailureReport) string {
	switch s {
	case fromStackTrace:
		return r.StackTrace
	case fromErrorMessage:
		return r.ErrorMessage
	default:
		return r.Logs
	}
}

// rule is one (source, pattern) step of an extraction chain. The first
// capture group holds the value.
type rule struct {
	src source
	re  *regexp.Regexp
}

// pathChars is the character class accepted inside a file path.
const pathChars = `[\w.\\/-]`

var (
	lineWordRe  = regexp.MustCompile(`(?i)\bline\s+(\d+)`)
	fileLineRe  = regexp.MustCompile(pathChars + `+\.[A-Za-z]{1,5}:(\d+)`)
	parenLineRe = regexp.MustCompile(`:(\d+)\)`)
	atLineRe    = regexp.MustCompile(`\bat\s+\S+:(\d+)`)

	testPrefixFileRe = regexp.MustCompile(`((?:` + pathChars + `*/)?\btest_[\w-]+(?:\.[A-Za-z]{1,5})+)\b`)
	testSuffixFileRe = regexp.MustCompile(`((?:` + pathChars + `*/)?[\w-]+_test(?:\.[A-Za-z]{1,5})+)\b`)
	specFileRe       = regexp.MustCompile(`((?:` + pathChars + `*/)?[\w-]+\.(?:spec|test)\.[A-Za-z]{1,5})\b`)
	quotedFileRe     = regexp.MustCompile(`File\s+"([^"]+)"`)
	atFileRe         = regexp.MustCompile(`\bat\s+\(?([^\s():]+\.\w+):\d+`)
	sourceFileRe     = regexp.MustCompile(`(` + pathChars + `+\.(?:py|js|mjs|cjs|ts|jsx|tsx|java|kt|go|rb|php|cs|rs|swift|scala|c|cc|cpp|h))\b`)

	timestampRe = regexp.MustCompile(`\[?(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?)\]?`)
)

// packageInitFiles are never reported as the failing file.
var packageInitFiles = map[string]bool{
	"__init__.py": true,
	"__main__.py": true,
	"index.js":    true,
	"index.ts":    true,
	"mod.rs":      true,
}

// lineRules is evaluated top to bottom; the first plausible match wins.
// Logs only get the "line N" pattern so that timestamps are never read as lines.
var lineRules = []rule{
	{fromStackTrace, lineWordRe},
	{fromStackTrace, fileLineRe},
	{fromStackTrace, parenLineRe},
	{fromStackTrace, atLineRe},
	{fromErrorMessage, lineWordRe},
	{fromErrorMessage, fileLineRe},
	{fromErrorMessage, parenLineRe},
	{fromErrorMessage, atLineRe},
	{fromLogs, lineWordRe},
}

// fileRules is evaluated top to bottom; the first accepted match wins.
var fileRules = buildFileRules()

func buildFileRules() []rule {
	patterns := []*regexp.Regexp{
		testPrefixFileRe,
		testSuffixFileRe,
		specFileRe,
		quotedFileRe,
		atFileRe,
		sourceFileRe,
	}
	var rules []rule
	for _, src := range []source{fromStackTrace, fromErrorMessage, fromLogs} {
		for _, re := range patterns {
			rules = append(rules, rule{src, re})
		}
	}
	return rules
}

// Extract derives the structured fields of a report. Every field is
// populated: the line falls back to 1 and the file path to the declared
// path, then to "<test name>.unknown", then to "unknown_file".
func Extract(r models.FailureReport) models.ExtractedFields {
	return models.ExtractedFields{
		LineNumber: extractLine(r),
		FilePath:   extractFile(r),
		StackTrace: truncate(r.StackTrace, MaxStackTraceChars),
		LogSnippet: truncate(r.Logs, MaxLogSnippetChars),
		Timestamp:  extractTimestamp(r.Logs),
	}
}

func extractLine(r models.FailureReport) int {
	for _, rl := range lineRules {
		text := rl.src.text(r)
		if text == "" {
			continue
		}
		m := rl.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > maxPlausibleLine {
			continue
		}
		return n
	}
	return 1
}

func extractFile(r models.FailureReport) string {
	for _, rl := range fileRules {
		text := rl.src.text(r)
		if text == "" {
			continue
		}
		for _, m := range rl.re.FindAllStringSubmatch(text, -1) {
			candidate := strings.TrimSpace(m[1])
			if candidate == "" || packageInitFiles[path.Base(strings.ReplaceAll(candidate, `\`, "/"))] {
				continue
			}
			return candidate
		}
	}

	if fp := strings.TrimSpace(r.FilePath); fp != "" {
		return fp
	}
	if tn := strings.TrimSpace(r.TestName); tn != "" {
		return tn + ".unknown"
	}
	return unknownFile
}

func extractTimestamp(logs string) string {
	if m := timestampRe.FindStringSubmatch(logs); m != nil {
		return m[1]
	}
	return ""
}

// SuiteName returns the base name of the declared file path without its extension.
func SuiteName(filePath string) string {
	fp := strings.TrimSpace(strings.ReplaceAll(filePath, `\`, "/"))
	if fp == "" {
		return ""
	}
	base := path.Base(fp)
	return strings.TrimSuffix(base, path.Ext(base))
}

// FailureReason returns the first line of the error message, capped at 150 characters.
func FailureReason(errorMessage string) string {
	first, _, _ := strings.Cut(errorMessage, "\n")
	return truncate(strings.TrimSpace(first), 150)
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
