package triage

import (
	"strings"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// severityRule fires on the lower-cased test name, the raw error message and the category.
type severityRule struct {
	severity models.Severity
	match    func(name, errorMessage string, cat models.Category) bool
}

// severityRules is ordered; several rules can match one input and the first wins.
var severityRules = []severityRule{
	{models.SeverityCritical, func(name, _ string, _ models.Category) bool {
		return containsAny(name, "login", "checkout", "payment", "auth", "critical", "security")
	}},
	{models.SeverityHigh, func(name, _ string, _ models.Category) bool {
		return containsAny(name, "purchase", "transaction", "order", "signup")
	}},
	{models.SeverityHigh, func(_, em string, cat models.Category) bool {
		return (cat == models.CategoryAuthentication || cat == models.CategoryBackendAPI) &&
			strings.Contains(em, "500")
	}},
	{models.SeverityLow, func(name, _ string, _ models.Category) bool {
		return containsAny(name, "visual", "ui", "style", "css", "color")
	}},
	{models.SeverityLow, func(name, _ string, cat models.Category) bool {
		return cat == models.CategoryFrontendUI && strings.Contains(name, "button")
	}},
	{models.SeverityMedium, func(_, _ string, cat models.Category) bool {
		return cat == models.CategoryPerformance || cat == models.CategoryInfrastructure ||
			cat == models.CategoryDatabase
	}},
	{models.SeverityMedium, func(_, em string, _ models.Category) bool {
		return strings.Contains(strings.ToLower(em), "timeout")
	}},
}

// ClassifySeverity assigns a severity from the test identity and category.
// Medium is the default.
func ClassifySeverity(testName, errorMessage string, cat models.Category) models.Severity {
	name := strings.ToLower(testName)
	for _, r := range severityRules {
		if r.match(name, errorMessage, cat) {
			return r.severity
		}
	}
	return models.SeverityMedium
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
