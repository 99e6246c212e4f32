package triage

import (
	"testing"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

func failureText(testName, errorMessage string) string {
	return ComposeFailureText(models.FailureReport{
		TestName:     testName,
		FilePath:     "tests/test_sample.py",
		ErrorMessage: errorMessage,
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		errorMessage string
		want         models.Category
	}{
		{"missing element", "NoSuchElementException: unable to locate element #edit-profile-btn", models.CategoryFrontendUI},
		{"undefined props", "TypeError: Cannot read properties of undefined (reading 'map')", models.CategoryFrontendUI},
		{"ui markers beat 500", "playwright locator error: 500 from server", models.CategoryFrontendUI},
		{"psycopg2", "psycopg2.OperationalError: connection timed out", models.CategoryDatabase},
		{"sql", "SQLSTATE[23000]: integrity violation", models.CategoryDatabase},
		{"unauthorized", "401 Unauthorized", models.CategoryAuthentication},
		{"timeout", "Timeout 5000ms exceeded waiting for response", models.CategoryPerformance},
		{"internal server error", "HTTP 500 Internal Server Error", models.CategoryBackendAPI},
		{"connection refused", "Connection refused by host", models.CategoryInfrastructure},
		{"no match", "something odd happened", models.CategoryUnknown},
		{"empty", "", models.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(failureText("test_report_export", tt.errorMessage))
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_UsesFullText(t *testing.T) {
	text := ComposeFailureText(models.FailureReport{
		TestName:     "test_profile",
		ErrorMessage: "assertion failed",
		StackTrace:   "DeadlockDetected while updating rows",
	})
	if got := Classify(text); got != models.CategoryDatabase {
		t.Errorf("Classify() = %q, want %q", got, models.CategoryDatabase)
	}
}

func TestClassify_Total(t *testing.T) {
	inputs := []string{"", "\n\n", "Error Message:", "Error Message: ", "random", "Error Message: 503 gateway"}
	for _, in := range inputs {
		if got := Classify(in); !got.Valid() {
			t.Errorf("Classify(%q) = %q, not a known category", in, got)
		}
	}
}
