package upstream

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/maccel-fedora/rpm-builder/internal/ghapi"
)

// GitHubOracle reads the upstream source repository through the GitHub API.
type GitHubOracle struct {
	client       *ghapi.Client
	owner        string
	repo         string
	branch       string
	manifestPath string
}

func NewGitHubOracle(client *ghapi.Client, owner, repo, branch, manifestPath string) *GitHubOracle {
	if branch == "" {
		branch = "main"
	}
	if manifestPath == "" {
		manifestPath = "Cargo.toml"
	}
	return &GitHubOracle{
		client:       client,
		owner:        owner,
		repo:         repo,
		branch:       branch,
		manifestPath: manifestPath,
	}
}

func (o *GitHubOracle) LatestReleaseTag(ctx context.Context) (string, error) {
	var release struct {
		TagName string `json:"tag_name"`
	}
	path := fmt.Sprintf("/repos/%s/%s/releases/latest", o.owner, o.repo)
	if err := o.client.GetJSON(ctx, path, &release); err != nil {
		return "", err
	}
	return release.TagName, nil
}

func (o *GitHubOracle) ManifestVersion(ctx context.Context) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", o.owner, o.repo, o.manifestPath, o.branch)
	body, err := o.client.GetRaw(ctx, path)
	if err != nil {
		return "", err
	}

	var manifest struct {
		Package struct {
			Version string `toml:"version"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(body, &manifest); err != nil {
		return "", fmt.Errorf("cannot parse %s: %w", o.manifestPath, err)
	}
	if manifest.Package.Version == "" {
		return "", fmt.Errorf("%s has no package.version field", o.manifestPath)
	}
	return manifest.Package.Version, nil
}

func (o *GitHubOracle) LatestCommit(ctx context.Context) (string, error) {
	var commit struct {
		SHA string `json:"sha"`
	}
	path := fmt.Sprintf("/repos/%s/%s/commits/%s", o.owner, o.repo, o.branch)
	if err := o.client.GetJSON(ctx, path, &commit); err != nil {
		return "", err
	}
	if commit.SHA == "" {
		return "", fmt.Errorf("commit response for %s/%s@%s has no sha", o.owner, o.repo, o.branch)
	}
	return commit.SHA, nil
}
