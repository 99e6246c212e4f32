package triage

import (
	"strings"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// labelHints are the substrings that tie a vocabulary entry to a category.
var labelHints = map[models.Category][]string{
	models.CategoryFrontendUI:     {"ui", "front", "view"},
	models.CategoryBackendAPI:     {"api", "back", "service"},
	models.CategoryDatabase:       {"db", "data", "sql"},
	models.CategoryPerformance:    {"perf", "latency", "timeout"},
	models.CategoryInfrastructure: {"infra", "network", "server"},
	models.CategoryAuthentication: {"auth", "login", "token"},
}

// MapLabel projects a category onto the caller's label vocabulary.
//
// With no vocabulary the category name is returned. Otherwise an exact
// case-insensitive match wins, then the first entry containing one of the
// category's hint substrings, then the first entry unconditionally.
func MapLabel(cat models.Category, vocabulary []string) string {
	if len(vocabulary) == 0 {
		return string(cat)
	}

	name := strings.ToLower(string(cat))
	for _, label := range vocabulary {
		if strings.ToLower(label) == name {
			return label
		}
	}

	hints := labelHints[cat]
	for _, label := range vocabulary {
		l := strings.ToLower(label)
		for _, h := range hints {
			if strings.Contains(l, h) {
				return label
			}
		}
	}

	for _, label := range vocabulary {
		if strings.TrimSpace(label) != "" {
			return label
		}
	}
	if cat == "" {
		return string(models.CategoryUnknown)
	}
	return string(cat)
}
