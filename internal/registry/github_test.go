package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListReleases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"tag_name": "v1.2.0", "draft": false, "prerelease": false},
			{"tag_name": "v1.1.0", "draft": false, "prerelease": false},
			{"tag_name": "v1.0.0-draft", "draft": true, "prerelease": false}
		]`))
	}))
	defer srv.Close()

	c := NewClient("")
	c.baseURL = srv.URL

	releases, err := c.ListReleases(context.Background(), "owner", "repo")
	if err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}
	if len(releases) != 3 {
		t.Fatalf("ListReleases() returned %d releases, want 3", len(releases))
	}
	if releases[0].TagName != "v1.2.0" {
		t.Errorf("releases[0].TagName = %q, want v1.2.0", releases[0].TagName)
	}
}

func TestListReleases_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("")
	c.baseURL = srv.URL

	if _, err := c.ListReleases(context.Background(), "owner", "repo"); err == nil {
		t.Error("expected error for not-found repository")
	}
}

func TestGetAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/releases/assets/42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("asset-contents"))
	}))
	defer srv.Close()

	c := NewClient("")
	c.baseURL = srv.URL

	data, err := c.GetAsset(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetAsset() error = %v", err)
	}
	if string(data) != "asset-contents" {
		t.Errorf("GetAsset() = %q", data)
	}
}

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{url: "https://github.com/hearthcore/hearth", wantOwner: "hearthcore", wantRepo: "hearth"},
		{url: "github.com/hearthcore/hearth", wantOwner: "hearthcore", wantRepo: "hearth"},
		{url: "hearthcore/hearth", wantOwner: "hearthcore", wantRepo: "hearth"},
		{url: "hearthcore/hearth.git", wantOwner: "hearthcore", wantRepo: "hearth"},
		{url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, repo, err := ParseGitHubURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGitHubURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("ParseGitHubURL(%q) = %q, %q, want %q, %q", tt.url, owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}
