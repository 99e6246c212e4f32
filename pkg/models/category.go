package models

import "strings"

// Category is the coarse-grained subsystem a failure is attributed to.
type Category string

const (
	// CategoryFrontendUI covers browser, component and selector failures.
	CategoryFrontendUI Category = "frontend_ui"
	// CategoryBackendAPI covers server-side and HTTP endpoint failures.
	CategoryBackendAPI Category = "backend_api"
	// CategoryDatabase covers query, driver and connection-pool failures.
	CategoryDatabase Category = "database"
	// CategoryAuthentication covers login, token and permission failures.
	CategoryAuthentication Category = "authentication"
	// CategoryPerformance covers slow responses and latency budgets.
	CategoryPerformance Category = "performance"
	// CategoryInfrastructure covers network, DNS and gateway failures.
	CategoryInfrastructure Category = "infrastructure"
	// CategoryUnknown is used when no rule matches.
	CategoryUnknown Category = "unknown"
)

// AllCategories lists every category in a stable order.
var AllCategories = []Category{
	CategoryFrontendUI,
	CategoryBackendAPI,
	CategoryDatabase,
	CategoryAuthentication,
	CategoryPerformance,
	CategoryInfrastructure,
	CategoryUnknown,
}

// Valid returns true if the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryFrontendUI, CategoryBackendAPI, CategoryDatabase, CategoryAuthentication,
		CategoryPerformance, CategoryInfrastructure, CategoryUnknown:
		return true
	default:
		return false
	}
}

// ParseCategory maps free text onto a Category.
// Matching is case-insensitive; anything unrecognised becomes CategoryUnknown.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryUnknown
}
