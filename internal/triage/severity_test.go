package triage

import (
	"testing"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name         string
		testName     string
		errorMessage string
		cat          models.Category
		want         models.Severity
	}{
		{"critical name beats 500 rule", "test_checkout_payment_flow", "HTTP 500 returned", models.CategoryBackendAPI, models.SeverityCritical},
		{"critical name beats low name", "test_login_visual", "", models.CategoryUnknown, models.SeverityCritical},
		{"high name", "test_place_order", "", models.CategoryUnknown, models.SeverityHigh},
		{"auth 500", "test_fetch_items", "500 error", models.CategoryAuthentication, models.SeverityHigh},
		{"api 500", "test_fetch_items", "status 500", models.CategoryBackendAPI, models.SeverityHigh},
		{"ui 500 is not high", "test_fetch_items", "500", models.CategoryFrontendUI, models.SeverityMedium},
		{"low name", "test_visual_regression", "", models.CategoryUnknown, models.SeverityLow},
		{"ui button", "test_submit_button", "", models.CategoryFrontendUI, models.SeverityLow},
		{"database", "test_report", "", models.CategoryDatabase, models.SeverityMedium},
		{"timeout", "test_report", "Timeout exceeded", models.CategoryUnknown, models.SeverityMedium},
		{"default", "test_report", "", models.CategoryUnknown, models.SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySeverity(tt.testName, tt.errorMessage, tt.cat)
			if got != tt.want {
				t.Errorf("ClassifySeverity(%q, %q, %q) = %q, want %q", tt.testName, tt.errorMessage, tt.cat, got, tt.want)
			}
		})
	}
}
