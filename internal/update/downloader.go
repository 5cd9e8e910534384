package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hearthcore/hearth/internal/manifest"
	"github.com/hearthcore/hearth/internal/secureio"
)

// ErrChecksumMismatch is returned by ArtifactDownloader.Download when the
// downloaded bytes do not hash to manifest.ChecksumSha256.
var ErrChecksumMismatch = errors.New("artifact checksum mismatch")

// URLFetcher fetches the raw bytes at an absolute URL. *registry.Client
// satisfies this via its FetchURL method; tests supply a fake.
type URLFetcher interface {
	FetchURL(ctx context.Context, url string) ([]byte, error)
}

// ArtifactDownloader is the production Downloader: it fetches m's selected
// artifact, verifies its checksum against m.ChecksumSha256 bit-for-bit, and
// only on a match stages it under downloadsDir/<version>/<filename>, per the
// §3 "staged artifact checksum equals manifest.checksumSha256" invariant.
type ArtifactDownloader struct {
	fetcher      URLFetcher
	downloadsDir string
}

// NewArtifactDownloader builds an ArtifactDownloader over fetcher, staging
// verified artifacts under downloadsDir.
func NewArtifactDownloader(fetcher URLFetcher, downloadsDir string) *ArtifactDownloader {
	return &ArtifactDownloader{fetcher: fetcher, downloadsDir: downloadsDir}
}

// Download fetches m's selected artifact and stages it, matching the
// Downloader signature StateMachine.Download calls through.
func (d *ArtifactDownloader) Download(m *manifest.Manifest) (string, error) {
	if m.DownloadURL == "" {
		return "", fmt.Errorf("manifest %s has no selected artifact", m.Version)
	}

	data, err := d.fetcher.FetchURL(context.Background(), m.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("fetch artifact: %w", err)
	}

	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if !strings.EqualFold(got, m.ChecksumSha256) {
		return "", fmt.Errorf("%w: manifest declares %s, downloaded artifact hashes to %s", ErrChecksumMismatch, m.ChecksumSha256, got)
	}

	destDir := filepath.Join(d.downloadsDir, m.Version)
	if err := os.MkdirAll(destDir, 0o700); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}

	dest := filepath.Join(destDir, artifactFilename(m))
	if err := secureio.WriteFile(dest, data, 0o600); err != nil {
		return "", fmt.Errorf("stage artifact: %w", err)
	}
	return dest, nil
}

// artifactFilename derives a filename from the selected artifact's download
// URL path, falling back to a version-qualified generic name when the URL
// has no usable path segment.
func artifactFilename(m *manifest.Manifest) string {
	if u, err := url.Parse(m.DownloadURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}
	return "artifact-" + m.Version
}
