package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maccel-fedora/rpm-builder/internal/ghapi"
)

// releasesPageSize is the GitHub API maximum.
const releasesPageSize = 100

type githubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// GitHubRegistry reads artifact sets from a repository's GitHub Releases.
type GitHubRegistry struct {
	client *ghapi.Client
	owner  string
	repo   string
}

func NewGitHubRegistry(client *ghapi.Client, owner, repo string) *GitHubRegistry {
	return &GitHubRegistry{
		client: client,
		owner:  owner,
		repo:   repo,
	}
}

func (g *GitHubRegistry) release(ctx context.Context, tag string) (*githubRelease, error) {
	var release githubRelease
	path := fmt.Sprintf("/repos/%s/%s/releases/tags/%s", g.owner, g.repo, tag)
	if err := g.client.GetJSON(ctx, path, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (g *GitHubRegistry) Exists(ctx context.Context, tag string) (bool, error) {
	_, err := g.release(ctx, tag)
	if err != nil {
		var nferr *ghapi.NotFoundError
		if errors.As(err, &nferr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *GitHubRegistry) Assets(ctx context.Context, tag string) (*ArtifactSet, error) {
	release, err := g.release(ctx, tag)
	if err != nil {
		return nil, err
	}

	set := &ArtifactSet{Tag: release.TagName}
	for _, a := range release.Assets {
		set.Assets = append(set.Assets, Asset{
			Filename: a.Name,
			URL:      a.BrowserDownloadURL,
		})
	}
	return set, nil
}

func (g *GitHubRegistry) List(ctx context.Context, tagPrefix string) ([]string, error) {
	var tags []string
	for page := 1; ; page++ {
		var releases []githubRelease
		path := fmt.Sprintf("/repos/%s/%s/releases?per_page=%d&page=%d", g.owner, g.repo, releasesPageSize, page)
		if err := g.client.GetJSON(ctx, path, &releases); err != nil {
			return nil, err
		}
		for _, r := range releases {
			if strings.HasPrefix(r.TagName, tagPrefix) {
				tags = append(tags, r.TagName)
			}
		}
		if len(releases) < releasesPageSize {
			return tags, nil
		}
	}
}

func (g *GitHubRegistry) FetchAsset(ctx context.Context, asset Asset) ([]byte, error) {
	return g.client.Get(ctx, asset.URL, "application/octet-stream")
}
