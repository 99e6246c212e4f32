package triage

import (
	"testing"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

func TestMapLabel(t *testing.T) {
	tests := []struct {
		name  string
		cat   models.Category
		vocab []string
		want  string
	}{
		{"no vocabulary", models.CategoryFrontendUI, nil, "frontend_ui"},
		{"empty vocabulary", models.CategoryDatabase, []string{}, "database"},
		{"exact match ignores case", models.CategoryFrontendUI, []string{"Bug", "FRONTEND_UI"}, "FRONTEND_UI"},
		{"database family", models.CategoryDatabase, []string{"Frontend", "DB-Issue"}, "DB-Issue"},
		{"first family match in vocabulary order", models.CategoryFrontendUI, []string{"Backend", "UI bugs", "Frontend"}, "UI bugs"},
		{"api family", models.CategoryBackendAPI, []string{"ui", "Service outage"}, "Service outage"},
		{"auth family", models.CategoryAuthentication, []string{"misc", "Login flow"}, "Login flow"},
		{"performance family", models.CategoryPerformance, []string{"misc", "Timeouts"}, "Timeouts"},
		{"infrastructure family", models.CategoryInfrastructure, []string{"misc", "network"}, "network"},
		{"fallback to first entry", models.CategoryUnknown, []string{"triage-me", "other"}, "triage-me"},
		{"fallback skips blank entries", models.CategoryUnknown, []string{"", "real"}, "real"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapLabel(tt.cat, tt.vocab); got != tt.want {
				t.Errorf("MapLabel(%q, %v) = %q, want %q", tt.cat, tt.vocab, got, tt.want)
			}
		})
	}
}

func TestMapLabel_NeverEmpty(t *testing.T) {
	vocabs := [][]string{{"x"}, {"a", "b"}, {""}, {"  "}, {"", ""}}
	for _, cat := range models.AllCategories {
		for _, v := range vocabs {
			if got := MapLabel(cat, v); got == "" {
				t.Errorf("MapLabel(%q, %q) returned empty label", cat, v)
			}
		}
	}
}
