package export

import (
	"time"

	"github.com/hearthcore/hearth/internal/audit"
)

// Window is a half-open [From, To) time bound for an export. A nil bound on
// either side is unconstrained.
type Window struct {
	From *time.Time
	To   *time.Time
}

// ResolveWindow turns a relative window name ("24h", "7d", "30d") into an
// absolute Window anchored at now, or falls back to custom ISO-8601 bounds
// when relative is empty or unrecognized. Unparseable custom bounds are
// dropped rather than treated as an error, matching ParseLenientBound.
func ResolveWindow(relative, customFrom, customTo string, now time.Time) Window {
	if d, ok := relativeWindows[relative]; ok {
		from := now.Add(-d)
		return Window{From: &from, To: &now}
	}
	return Window{
		From: audit.ParseLenientBound(customFrom),
		To:   audit.ParseLenientBound(customTo),
	}
}

var relativeWindows = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}
