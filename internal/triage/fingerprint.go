package triage

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

var (
	hexRunRe   = regexp.MustCompile(`0x[0-9a-f]+|\b[0-9a-f]{8,}\b`)
	digitRunRe = regexp.MustCompile(`\d+`)
	spaceRunRe = regexp.MustCompile(`\s+`)
)

// Fingerprint identifies a recurring failure: the test name plus the first
// line of the error message with numbers, addresses and ids masked.
func Fingerprint(r models.FailureReport) string {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(r.TestName))))
	h.Write([]byte{'|'})
	h.Write([]byte(normalizeErrorLine(r.ErrorMessage)))
	return fmt.Sprintf("%016x", h.Sum64())
}

func normalizeErrorLine(errorMessage string) string {
	first, _, _ := strings.Cut(errorMessage, "\n")
	s := strings.ToLower(strings.TrimSpace(first))
	s = hexRunRe.ReplaceAllString(s, "#")
	s = digitRunRe.ReplaceAllString(s, "N")
	return spaceRunRe.ReplaceAllString(s, " ")
}
