package triage

import (
	"regexp"
	"strings"
)

const (
	genericTitle    = "Automated test failure"
	maxTitleWords   = 10
	maxTitleChars   = 120
	titleTrimChars  = " :,-"
	emptyCoreTitle  = "Assertion failure in automated UI test"
	notFoundTitle   = "Required UI element not found on page"
	serverErrTitle  = "Internal server error while processing request"
	serverErrPrefix = "Internal server error during "
)

var (
	selectorIDRe   = regexp.MustCompile(`#([\w\-]+)`)
	expectFailedRe = regexp.MustCompile(`(?i)expect\(.*?\)\s*\.?\s*to\w+\(.*?\)\s*failed`)
)

// titleRule yields a title when it recognises the lower-cased error message.
type titleRule func(em string) (string, bool)

// assertionTitleRules run before any cleanup of the error message.
var assertionTitleRules = []titleRule{
	fixedTitle("Page title does not match expected value", "tohavetitle", "to have title"),
	func(em string) (string, bool) {
		if !containsAny(em, "tobevisible", "to be visible") {
			return "", false
		}
		switch {
		case strings.Contains(em, "button"):
			return "Expected button element is not visible", true
		case strings.Contains(em, "input"):
			return "Expected input field is not visible", true
		}
		return "Expected UI element is not visible", true
	},
	fixedTitle("Page URL does not match expected value", "tohaveurl", "to have url"),
	func(em string) (string, bool) {
		if !containsAny(em, "tohavetext", "to have text") {
			return "", false
		}
		if containsAny(em, "heading", "h1") {
			return "Heading text does not match expected value", true
		}
		return "Element text content does not match expected value", true
	},
	func(em string) (string, bool) {
		if !containsAny(em, "tohavecount", "to have count") {
			return "", false
		}
		if strings.Contains(em, "paragraph") {
			return "Paragraph count does not match expected value", true
		}
		return "Element count does not match expected value", true
	},
	fixedTitle("Element does not contain expected text", "tocontaintext", "to contain text"),
	fixedTitle("Element is not enabled as expected", "tobeenabled", "to be enabled"),
	fixedTitle("Element is not disabled as expected", "tobedisabled", "to be disabled"),
	fixedTitle("Checkbox is not checked as expected", "tobechecked", "to be checked"),
}

// errorTitleRules run on the message with any traceback suffix removed.
var errorTitleRules = []titleRule{
	fixedTitle("Frontend component fails due to undefined value",
		"cannot read properties of undefined", "cannot read property"),
	fixedTitle("Database timeout while retrieving data",
		"psycopg2", "database", "connection timed out"),
}

var trailingTitleRules = []titleRule{
	fixedTitle("Type error due to invalid input or state", "typeerror"),
	fixedTitle("Attribute error accessing invalid or None object", "attributeerror"),
	fixedTitle("Assertion failure in automated test", "assertionerror"),
}

func fixedTitle(title string, tokens ...string) titleRule {
	return func(em string) (string, bool) {
		if containsAny(em, tokens...) {
			return title, true
		}
		return "", false
	}
}

// Title builds a short human-readable bug title from composed failure text.
// It never calls out and always returns a non-empty string.
func Title(failureText string) string {
	msg := fieldLine(failureText, fieldErrorMessage)
	testName := fieldLine(failureText, fieldTestName)
	em := strings.ToLower(msg)

	for _, r := range assertionTitleRules {
		if t, ok := r(em); ok {
			return t
		}
	}

	if strings.Contains(em, "traceback") {
		if i := strings.Index(msg, "Traceback"); i >= 0 {
			msg = strings.TrimSpace(msg[:i])
		}
		em = strings.ToLower(msg)
	}

	if containsAny(em, "nosuchelement", "unable to locate element") {
		if m := selectorIDRe.FindStringSubmatch(msg); m != nil {
			return selectorWords(m[1]) + " not found in UI"
		}
		return notFoundTitle
	}

	for _, r := range errorTitleRules {
		if t, ok := r(em); ok {
			return t
		}
	}

	if containsAny(em, "internal server error", "status code 500", " 500") {
		if testName != "" {
			return serverErrPrefix + testName
		}
		return serverErrTitle
	}

	for _, r := range trailingTitleRules {
		if t, ok := r(em); ok {
			return t
		}
	}

	if msg == "" {
		return genericTitle
	}
	return condenseTitle(msg)
}

// condenseTitle turns a raw error message into a title-like phrase.
func condenseTitle(msg string) string {
	core := msg
	if _, after, ok := strings.Cut(msg, ":"); ok {
		core = after
	}
	core = strings.TrimSpace(expectFailedRe.ReplaceAllString(strings.TrimSpace(core), ""))
	if core == "" {
		return emptyCoreTitle
	}

	words := strings.Fields(core)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	title := strings.TrimRight(truncate(strings.Join(words, " "), maxTitleChars), titleTrimChars)
	if title == "" {
		return genericTitle
	}
	return title
}

// selectorWords turns a CSS id such as "edit-profile-btn" into "Edit profile btn".
func selectorWords(selector string) string {
	s := strings.TrimLeft(selector, "#.")
	s = strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(s))
	if s == "" {
		return "UI element"
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
