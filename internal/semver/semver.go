// Package semver wraps Masterminds/semver/v3 with the lenient parsing and
// impact classification used across the manifest provider, the update state
// machine, and post-apply version comparison.
package semver

import (
	"fmt"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
)

// Version is the parsed semver type every caller compares and inspects.
type Version = mmsemver.Version

// Impact classifies how significant a version bump is relative to a baseline.
type Impact string

const (
	ImpactNone  Impact = "none"
	ImpactPatch Impact = "patch"
	ImpactMinor Impact = "minor"
	ImpactMajor Impact = "major"
)

// Parse accepts both "1.2.3" and "v1.2.3" forms, trying the literal string
// first so that any valid semver (with build metadata, prerelease tags, and
// so on) parses without the v-prefix dance changing its identity.
func Parse(version string) (*mmsemver.Version, error) {
	version = strings.TrimSpace(version)
	if v, err := mmsemver.NewVersion(version); err == nil {
		return v, nil
	}

	if strings.HasPrefix(version, "v") {
		if v, err := mmsemver.NewVersion(strings.TrimPrefix(version, "v")); err == nil {
			return v, nil
		}
	} else if v, err := mmsemver.NewVersion("v" + version); err == nil {
		return v, nil
	}

	return nil, fmt.Errorf("invalid version: %s", version)
}

// IsValid reports whether version parses as a semver, with or without a
// leading "v".
func IsValid(version string) bool {
	_, err := Parse(version)
	return err == nil
}

// Compare returns -1, 0, or 1 per Masterminds/semver/v3 precedence rules:
// numeric prerelease identifiers compare numerically, mixed identifiers fall
// back to lexicographic ordering, and a version with no prerelease outranks
// one with any. Unprefixed and v-prefixed tags compare equal when otherwise
// identical.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", a, err)
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// ImpactOf classifies the step from current to candidate. Candidate is assumed
// to be >= current; the caller filters out non-advancing candidates before
// calling this.
func ImpactOf(current, candidate *mmsemver.Version) Impact {
	if candidate.Major() > current.Major() {
		return ImpactMajor
	}
	if candidate.Minor() > current.Minor() {
		return ImpactMinor
	}
	if candidate.Patch() > current.Patch() {
		return ImpactPatch
	}
	if candidate.Compare(current) != 0 {
		// prerelease or metadata-only change still counts as a patch-level step
		return ImpactPatch
	}
	return ImpactNone
}

// ImpactBetween parses both strings and reports the impact of moving from
// current to candidate. Returns ImpactNone with an error if either string
// fails to parse.
func ImpactBetween(current, candidate string) (Impact, error) {
	cur, err := Parse(current)
	if err != nil {
		return ImpactNone, fmt.Errorf("parse current %q: %w", current, err)
	}
	cand, err := Parse(candidate)
	if err != nil {
		return ImpactNone, fmt.Errorf("parse candidate %q: %w", candidate, err)
	}
	return ImpactOf(cur, cand), nil
}
