package triage

import (
	"strings"
	"testing"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

func TestSanitizeDescription(t *testing.T) {
	failure := ComposeFailureText(models.FailureReport{
		TestName:     "test_x",
		ErrorMessage: "boom",
		StackTrace:   `File "a.py", line 3, in f`,
	})

	description := strings.Join([]string{
		"Summary of the failure.",
		"Error Message: boom",
		"Test Name: test_x",
		"",
		"   ",
		"Traceback (most recent call last):",
		`  File "app/x.py", line 10, in handler`,
		"[ERROR] something exploded",
		"Second paragraph.",
		"",
		"",
		"Third.",
		"",
	}, "\n")

	want := "Summary of the failure.\n\nSecond paragraph.\n\nThird."
	if got := SanitizeDescription(description, failure); got != want {
		t.Errorf("SanitizeDescription() = %q, want %q", got, want)
	}
}

func TestSanitizeDescription_KeepsProse(t *testing.T) {
	desc := "The checkout page fails when the cart is empty.\n\n[Note] this reads fine"
	if got := SanitizeDescription(desc, "Test Name: x"); got != desc {
		t.Errorf("SanitizeDescription() = %q, want unchanged", got)
	}
}

func TestDescriptionPrompt(t *testing.T) {
	failure := "Test Name: test_x\nError Message: boom"
	got := DescriptionPrompt(failure)
	if !strings.Contains(got, failure) {
		t.Error("DescriptionPrompt() does not include the failure text")
	}
	if !strings.HasPrefix(got, descriptionPrompt) {
		t.Error("DescriptionPrompt() does not start with the instructions")
	}
}
