package manifest

import "context"

// CandidateRelease is one upstream release the provider offers as a
// possible update source, before its manifest asset has been fetched.
type CandidateRelease struct {
	TagName    string
	Draft      bool
	Prerelease bool
}

// Provider discovers candidate releases and fetches their manifest and
// signature bytes. A concrete provider corresponds to one
// UpdateManifest.provider value (e.g. "github").
type Provider interface {
	// ListCandidates returns up to the provider's fetch cap of recent
	// releases, most recent first.
	ListCandidates(ctx context.Context) ([]CandidateRelease, error)
	// FetchManifest returns the raw manifest.json bytes for a candidate.
	FetchManifest(ctx context.Context, c CandidateRelease) ([]byte, error)
	// FetchSignature returns the detached signature bytes for a
	// candidate's manifest, and false if no signature asset is attached.
	FetchSignature(ctx context.Context, c CandidateRelease) ([]byte, bool, error)
}
