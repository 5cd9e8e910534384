package manifest

import (
	"fmt"
	"regexp"

	"github.com/hearthcore/hearth/internal/semver"
)

var checksumPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

var knownChannels = map[string]bool{"stable": true, "rc": true}
var knownProviders = map[string]bool{"github": true}

// Validate checks manifest structure: required fields present, version is
// valid semver, checksum is 64 lowercase hex characters, channel and
// provider are recognized, the compatibility block is present, and
// component versions are numeric where the schema requires it.
func Validate(m *Manifest) error {
	if m.Version == "" {
		return fmt.Errorf("manifest: missing version")
	}
	if !semver.IsValid(m.Version) {
		return fmt.Errorf("manifest: version %q is not valid semver", m.Version)
	}
	if !knownChannels[m.Channel] {
		return fmt.Errorf("manifest: unknown channel %q", m.Channel)
	}
	if !knownProviders[m.Provider] {
		return fmt.Errorf("manifest: unknown provider %q", m.Provider)
	}
	if m.ChecksumSha256 == "" || !checksumPattern.MatchString(m.ChecksumSha256) {
		return fmt.Errorf("manifest: checksumSha256 must be 64 hex characters")
	}
	if m.Components.IPCContractVersion < 0 || m.Components.UserDataSchemaVersion < 0 {
		return fmt.Errorf("manifest: component schema versions must be non-negative")
	}
	if m.Compatibility.Strategy == "" {
		return fmt.Errorf("manifest: missing compatibility.strategy")
	}
	return nil
}
