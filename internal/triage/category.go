package triage

import (
	"strings"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// categoryRule matches against the lower-cased error message line (em) and
// the lower-cased full failure text (full).
type categoryRule struct {
	category models.Category
	match    func(em, full string) bool
}

// categoryRules is ordered: the predicates overlap and the first match wins.
// UI framework markers must be checked before the generic 500/API markers.
var categoryRules = []categoryRule{
	{models.CategoryFrontendUI, func(em, full string) bool {
		return strings.Contains(em, "nosuchelement") ||
			strings.Contains(em, "unable to locate element") ||
			strings.Contains(full, "selenium") ||
			strings.Contains(full, "playwright") ||
			(strings.Contains(full, "button") && strings.Contains(full, "click")) ||
			strings.Contains(full, "#edit-") ||
			(strings.Contains(full, "component") && (strings.Contains(full, "render") || strings.Contains(full, "props"))) ||
			strings.Contains(em, "cannot read properties of undefined") ||
			strings.Contains(em, "cannot read property")
	}},
	{models.CategoryDatabase, func(em, full string) bool {
		return strings.Contains(em, "psycopg2") ||
			strings.Contains(em, "sql") ||
			strings.Contains(em, "database") ||
			strings.Contains(em, "connection timed out") ||
			(strings.Contains(em, "timeout") && strings.Contains(full, "query")) ||
			strings.Contains(full, "deadlock")
	}},
	{models.CategoryAuthentication, func(em, full string) bool {
		return strings.Contains(em, "unauthorized") ||
			strings.Contains(em, "forbidden") ||
			strings.Contains(full, "authentication") ||
			strings.Contains(full, "jwt") ||
			strings.Contains(full, "token expired")
	}},
	{models.CategoryPerformance, func(em, full string) bool {
		return strings.Contains(em, "timeout") ||
			strings.Contains(full, "took too long") ||
			strings.Contains(full, "slow response") ||
			strings.Contains(full, "latency")
	}},
	{models.CategoryBackendAPI, func(em, full string) bool {
		return strings.Contains(em, "internal server error") ||
			strings.Contains(em, "status code 5") ||
			strings.Contains(em, "500") ||
			strings.Contains(full, "api") ||
			strings.Contains(full, "endpoint") ||
			strings.Contains(full, "response code")
	}},
	{models.CategoryInfrastructure, func(em, full string) bool {
		return strings.Contains(em, "connection refused") ||
			strings.Contains(em, "host unreachable") ||
			strings.Contains(full, "dns") ||
			strings.Contains(full, "gateway") ||
			strings.Contains(em, "service unavailable")
	}},
}

// Classify maps composed failure text onto exactly one category.
// It returns CategoryUnknown when no rule matches.
func Classify(failureText string) models.Category {
	em := strings.ToLower(fieldLine(failureText, fieldErrorMessage))
	full := strings.ToLower(failureText)

	for _, r := range categoryRules {
		if r.match(em, full) {
			return r.category
		}
	}
	return models.CategoryUnknown
}
