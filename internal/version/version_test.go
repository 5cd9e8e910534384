package version

import (
	"regexp"
	"testing"
)

func TestGet(t *testing.T) {
	t.Run("returns non-empty version", func(t *testing.T) {
		got := Get()
		if got == "" {
			t.Error("Get() returned empty string")
		}
	})

	t.Run("returns dev or valid semver", func(t *testing.T) {
		got := Get()
		semverPattern := regexp.MustCompile(`^\d+\.\d+\.\d+(?:[-+][0-9A-Za-z.+-]+)?$`)
		if got != "dev" && !semverPattern.MatchString(got) {
			t.Errorf("Get() = %q, want \"dev\" or a semantic version", got)
		}
	})
}

func TestGet_Format(t *testing.T) {
	got := Get()

	if got != "" && (got[0] == ' ' || got[0] == '\n' || got[0] == '\t') {
		t.Error("Get() returned version with leading whitespace")
	}

	if got != "" && (got[len(got)-1] == ' ' || got[len(got)-1] == '\n' || got[len(got)-1] == '\t') {
		t.Error("Get() returned version with trailing whitespace")
	}
}
