package models

import "testing"

func TestSeverity_Valid(t *testing.T) {
	tests := []struct {
		sev  Severity
		want bool
	}{
		{SeverityCritical, true},
		{SeverityHigh, true},
		{SeverityMedium, true},
		{SeverityLow, true},
		{Severity("critical"), false},
		{Severity(""), false},
	}

	for _, tt := range tests {
		if got := tt.sev.Valid(); got != tt.want {
			t.Errorf("Severity(%q).Valid() = %v, want %v", tt.sev, got, tt.want)
		}
	}
}

func TestSeverity_Rank(t *testing.T) {
	order := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, Severity("bogus")}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%q.Rank() = %d, want less than %q.Rank() = %d",
				order[i-1], order[i-1].Rank(), order[i], order[i].Rank())
		}
	}
}
