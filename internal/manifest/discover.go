package manifest

import (
	"context"
	"fmt"

	"github.com/hearthcore/hearth/internal/semver"
)

// DiscoverOptions parameterizes Discover.
type DiscoverOptions struct {
	Channel          string
	Platform         string
	Arch             string
	PackagePreference []PackageType
	PublicKeyPEM     []byte // nil disables signature verification
}

// Discover walks a provider's candidate releases, validating and
// version-comparing manifests to find the best available update for
// channel. It returns (nil, false, nil) when no candidate qualifies.
func Discover(ctx context.Context, p Provider, opts DiscoverOptions) (*Manifest, bool, error) {
	candidates, err := p.ListCandidates(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("list candidates: %w", err)
	}

	var best *Manifest
	var bestVersion *semver.Version

	for _, c := range candidates {
		if opts.Channel == "stable" && c.Prerelease {
			continue
		}

		manifestBytes, err := p.FetchManifest(ctx, c)
		if err != nil {
			continue
		}

		m, err := parseAndVerify(ctx, p, c, manifestBytes, opts.PublicKeyPEM)
		if err != nil {
			continue
		}
		if err := Validate(m); err != nil {
			continue
		}
		if m.Channel != opts.Channel {
			continue
		}

		if _, ok := SelectArtifact(m, opts.Platform, opts.Arch, opts.PackagePreference); !ok {
			continue
		}

		version, err := semver.Parse(m.Version)
		if err != nil {
			continue
		}

		if best == nil || version.Compare(bestVersion) > 0 {
			best = m
			bestVersion = version
		}
	}

	if best == nil {
		return nil, false, nil
	}
	return best, true, nil
}

func parseAndVerify(ctx context.Context, p Provider, c CandidateRelease, manifestBytes []byte, publicKeyPEM []byte) (*Manifest, error) {
	m, err := parseManifest(manifestBytes)
	if err != nil {
		return nil, err
	}

	if publicKeyPEM != nil {
		sigBytes, ok, err := p.FetchSignature(ctx, c)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("manifest: signature required but not present for %s", c.TagName)
		}
		if err := VerifySignature(manifestBytes, sigBytes, publicKeyPEM); err != nil {
			return nil, err
		}
	}

	return m, nil
}
