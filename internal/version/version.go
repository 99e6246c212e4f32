// Package version reports the bugtriage release.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionContent string

// Get returns the current version, with whitespace trimmed
func Get() string {
	return strings.TrimSpace(versionContent)
}

// UserAgent is sent with outbound HTTP requests.
func UserAgent() string {
	return "bugtriage/" + Get()
}
