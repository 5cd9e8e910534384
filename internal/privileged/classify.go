package privileged

import (
	"strings"

	"github.com/hearthcore/hearth/internal/errcode"
	"github.com/hearthcore/hearth/internal/procexec"
)

var sudoPolicyDeniedMarkers = []string{
	"not in the sudoers",
	"is not allowed to run sudo",
	"may not run sudo",
}

var sudoTTYMarkers = []string{
	"a terminal is required",
	"no tty present",
	"a password is required",
	"askpass",
}

var privilegeRequiredMarkers = []string{
	"permission denied",
	"not authorized",
	"authentication is needed",
	"polkit",
	"sudo:",
}

// Classify maps a finished action result onto a stable ErrorCode. Order
// matters: timeout is checked before any output inspection, and among the
// text markers the first list that matches wins.
func Classify(res procexec.Result) errcode.Code {
	if res.TimedOut {
		return errcode.Timeout
	}

	combined := strings.ToLower(res.Stdout + "\n" + res.Stderr)

	if containsAny(combined, sudoPolicyDeniedMarkers) {
		return errcode.SudoPolicyDenied
	}
	if containsAny(combined, sudoTTYMarkers) {
		return errcode.SudoTTYRequired
	}
	if containsAny(combined, privilegeRequiredMarkers) {
		return errcode.PrivilegeRequired
	}
	if res.ExitCode == nil {
		return errcode.ShellSpawnError
	}
	return errcode.CommandFailed
}

func containsAny(haystack string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(haystack, m) {
			return true
		}
	}
	return false
}
