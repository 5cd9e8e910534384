// Package diffutil renders unified diffs between two versions of a persisted
// document (permission policy, update state) for embedding in audit event
// metadata, so an auditor can see what changed rather than just that it did.
package diffutil

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff between oldContent and newContent, both
// treated as the named document's successive JSON-pretty-printed bytes.
func Unified(name, oldContent, newContent string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: name,
		ToFile:   name,
		Context:  3,
		Eol:      "\n",
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("generate diff: %w", err)
	}

	return text, nil
}

// CountChanges counts the +/- lines in a unified diff, ignoring the
// +++/--- file header lines.
func CountChanges(diff string) (additions, deletions int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"):
		case strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}
