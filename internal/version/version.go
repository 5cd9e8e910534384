// Package version provides the host application's own version information.
// It is embedded from the VERSION file at the repository root and is the
// "currentAppVersion" compared against UpdateApplyAttempt.targetVersion by
// internal/update/postapply.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionFile string

// current holds the running application version, read from the embedded
// VERSION file. Can be overridden at build time using
// -ldflags "-X github.com/hearthcore/hearth/internal/version.current=X.Y.Z"
var current = strings.TrimSpace(versionFile)

// Get returns the current application version.
func Get() string {
	if current == "" {
		return "dev"
	}
	return current
}
