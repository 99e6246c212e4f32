package triage

import "strings"

// Flakiness reasons, reported in check order.
const (
	ReasonTimeout      = "Timeout detected"
	ReasonRetry        = "Retry pattern detected"
	ReasonIntermittent = "Intermittent failure keywords detected"
	ReasonTiming       = "Timing/race condition pattern detected"
)

var flakinessChecks = []struct {
	reason string
	tokens []string
}{
	{ReasonTimeout, []string{"timeout", "timed out"}},
	{ReasonRetry, []string{"retry", "retrying"}},
	{ReasonIntermittent, []string{"intermittent", "occasionally", "sometimes", "randomly", "sporadic"}},
	{ReasonTiming, []string{"race condition", "timing"}},
}

// DetectFlakiness scans the error message and stack trace for signs of a
// non-deterministic failure. Every check runs; the reasons keep check order.
func DetectFlakiness(errorMessage, stackTrace string) (bool, []string) {
	text := strings.ToLower(errorMessage) + " " + strings.ToLower(stackTrace)

	reasons := []string{}
	for _, c := range flakinessChecks {
		if containsAny(text, c.tokens...) {
			reasons = append(reasons, c.reason)
		}
	}
	return len(reasons) > 0, reasons
}
