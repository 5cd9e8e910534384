// Package registry provides a small typed GitHub Releases client, the
// concrete provider=github implementation ManifestProvider fetches
// candidate releases and assets through.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	githubAPIURL      = "https://api.github.com"
	maxReleasesFetched = 15
)

// Client queries the GitHub API for release and asset information.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewClient creates a new GitHub API client. Token is optional but
// recommended to avoid rate limiting.
func NewClient(token string) *Client {
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: githubAPIURL,
		token:   token,
	}
}

// Release is the subset of a GitHub release this module inspects.
type Release struct {
	TagName     string  `json:"tag_name"`
	Name        string  `json:"name"`
	Draft       bool    `json:"draft"`
	Prerelease  bool    `json:"prerelease"`
	CreatedAt   string  `json:"created_at"`
	PublishedAt string  `json:"published_at"`
	Assets      []Asset `json:"assets"`
}

// Asset is one file attached to a release.
type Asset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
}

func (c *Client) newRequest(ctx context.Context, method, url string, accept string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// ListReleases fetches up to maxReleasesFetched most recent releases for a
// repository, matching the manifest provider's "fetch up to 15 recent
// releases" contract.
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d", c.baseURL, owner, repo, maxReleasesFetched)

	req, err := c.newRequest(ctx, http.MethodGet, url, "application/vnd.github.v3+json")
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("repository not found: %s/%s", owner, repo)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(releases) > maxReleasesFetched {
		releases = releases[:maxReleasesFetched]
	}
	return releases, nil
}

// GetAsset downloads one release asset's raw bytes by asset ID, used for the
// manifest document and its detached signature.
func (c *Client) GetAsset(ctx context.Context, owner, repo string, assetID int64) ([]byte, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/assets/%d", c.baseURL, owner, repo, assetID)

	req, err := c.newRequest(ctx, http.MethodGet, url, "application/octet-stream")
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching asset %d: %d", assetID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read asset body: %w", err)
	}
	return body, nil
}

// FetchURL downloads the raw bytes at an arbitrary absolute URL, used for a
// release's browser_download_url (a signed redirect to object storage, not
// the API host GetAsset talks to, so it carries no Accept/Authorization
// header).
func (c *Client) FetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching %s: %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// ParseGitHubURL extracts owner and repo from a GitHub URL. Supports
// https://github.com/owner/repo, github.com/owner/repo, and owner/repo.
func ParseGitHubURL(url string) (owner, repo string, err error) {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "github.com/")
	url = strings.TrimSuffix(url, ".git")

	re := regexp.MustCompile(`^([^/]+)/([^/]+)`)
	matches := re.FindStringSubmatch(url)
	if len(matches) != 3 {
		return "", "", fmt.Errorf("invalid GitHub URL: %s", url)
	}
	return matches[1], matches[2], nil
}
