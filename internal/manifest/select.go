package manifest

// SelectArtifact picks the best artifact for the running platform/arch from
// m.Artifacts, preferring package types in preferenceOrder. Within the
// platform/arch-matching set, the first preferred package type present
// wins; with no preference match, appimage is preferred, then whatever
// remains first in manifest order. The result is also copied onto
// m.DownloadURL/m.ChecksumSha256 for callers that only understand the
// legacy single-artifact fields.
func SelectArtifact(m *Manifest, platform, arch string, preferenceOrder []PackageType) (*Artifact, bool) {
	var matches []Artifact
	for _, a := range m.Artifacts {
		if a.Platform == platform && a.Arch == arch {
			matches = append(matches, a)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}

	for _, pref := range preferenceOrder {
		for i := range matches {
			if matches[i].PackageType == pref {
				return applySelection(m, &matches[i]), true
			}
		}
	}

	for i := range matches {
		if matches[i].PackageType == PackageTypeAppImage {
			return applySelection(m, &matches[i]), true
		}
	}

	return applySelection(m, &matches[0]), true
}

func applySelection(m *Manifest, a *Artifact) *Artifact {
	selected := *a
	m.SelectedArtifact = &selected
	m.DownloadURL = selected.DownloadURL
	m.ChecksumSha256 = selected.ChecksumSha256
	return &selected
}
