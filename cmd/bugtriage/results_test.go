package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

func TestPrintResultTable(t *testing.T) {
	var buf bytes.Buffer
	printResultTable(&buf, nil)
	if got := buf.String(); got != "No stored results.\n" {
		t.Errorf("printResultTable(nil) = %q", got)
	}

	buf.Reset()
	printResultTable(&buf, []models.StoredResult{{
		ID:        "abc-123",
		CreatedAt: time.Now(),
		TriageResult: models.TriageResult{
			Title:    "Checkout returns 500",
			Severity: models.SeverityCritical,
			Category: models.CategoryBackendAPI,
			Label:    "Backend Error",
		},
	}})
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("printResultTable() printed %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("header = %q", lines[0])
	}
	for _, want := range []string{"abc-123", "Critical", "backend_api", "Backend Error", "Checkout returns 500"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row missing %q: %q", want, lines[1])
		}
	}
}
