package manifest

import (
	"context"
	"fmt"

	"github.com/hearthcore/hearth/internal/registry"
)

const (
	manifestAssetName  = "manifest.json"
	signatureAssetName = "manifest.json.sig"
)

// GitHubProvider is the provider=github concrete implementation of
// Provider, backed by a typed GitHub Releases client.
type GitHubProvider struct {
	client *registry.Client
	owner  string
	repo   string
}

// NewGitHubProvider builds a GitHubProvider over owner/repo.
func NewGitHubProvider(client *registry.Client, owner, repo string) *GitHubProvider {
	return &GitHubProvider{client: client, owner: owner, repo: repo}
}

// ListCandidates fetches releases and filters out drafts; prerelease
// filtering by channel happens in the caller, since that decision depends
// on the channel being checked, not the provider.
func (p *GitHubProvider) ListCandidates(ctx context.Context) ([]CandidateRelease, error) {
	releases, err := p.client.ListReleases(ctx, p.owner, p.repo)
	if err != nil {
		return nil, err
	}

	candidates := make([]CandidateRelease, 0, len(releases))
	for _, r := range releases {
		if r.Draft {
			continue
		}
		candidates = append(candidates, CandidateRelease{TagName: r.TagName, Draft: r.Draft, Prerelease: r.Prerelease})
	}
	return candidates, nil
}

func (p *GitHubProvider) findAsset(ctx context.Context, c CandidateRelease, name string) (*registry.Asset, error) {
	releases, err := p.client.ListReleases(ctx, p.owner, p.repo)
	if err != nil {
		return nil, err
	}
	for _, r := range releases {
		if r.TagName != c.TagName {
			continue
		}
		for i := range r.Assets {
			if r.Assets[i].Name == name {
				return &r.Assets[i], nil
			}
		}
		return nil, nil
	}
	return nil, fmt.Errorf("release %s not found", c.TagName)
}

// FetchManifest downloads the manifest.json asset for a candidate release.
func (p *GitHubProvider) FetchManifest(ctx context.Context, c CandidateRelease) ([]byte, error) {
	asset, err := p.findAsset(ctx, c, manifestAssetName)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("release %s has no %s asset", c.TagName, manifestAssetName)
	}
	return p.client.GetAsset(ctx, p.owner, p.repo, asset.ID)
}

// FetchSignature downloads the detached signature asset for a candidate
// release's manifest, if one is attached.
func (p *GitHubProvider) FetchSignature(ctx context.Context, c CandidateRelease) ([]byte, bool, error) {
	asset, err := p.findAsset(ctx, c, signatureAssetName)
	if err != nil {
		return nil, false, err
	}
	if asset == nil {
		return nil, false, nil
	}
	data, err := p.client.GetAsset(ctx, p.owner, p.repo, asset.ID)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
