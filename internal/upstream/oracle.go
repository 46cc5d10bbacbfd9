// Package upstream answers two questions about the driver's source
// repository: what its current version is, and which commit its default
// branch points at.
package upstream

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-semver/semver"
	"github.com/sirupsen/logrus"
)

// Oracle exposes the three independent reads the version resolution needs.
// The production implementation talks to the GitHub API; tests substitute
// fakes.
type Oracle interface {
	// LatestReleaseTag returns the tag of the newest upstream release.
	LatestReleaseTag(ctx context.Context) (string, error)
	// ManifestVersion returns the version field from the build manifest on
	// the default branch.
	ManifestVersion(ctx context.Context) (string, error)
	// LatestCommit returns the full commit hash the default branch points at.
	LatestCommit(ctx context.Context) (string, error)
}

// VersionResolutionError means no tier of the version resolution produced a
// usable version. This is usually a transient upstream outage; the caller
// should retry later rather than proceed.
type VersionResolutionError struct {
	reason string
}

func (e *VersionResolutionError) Error() string {
	return e.reason
}

// Normalize strips a leading "v" from a release tag and checks the result
// against the semantic version grammar. The empty return marks an unusable
// candidate.
func Normalize(candidate string) string {
	candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "v")
	if candidate == "" {
		return ""
	}
	if _, err := semver.NewVersion(candidate); err != nil {
		return ""
	}
	return candidate
}

// ResolveVersion determines the upstream version through three tiers, first
// success wins: the latest release tag, the manifest version field, and a
// version synthesized from the latest default-branch commit. A tier that
// errors or produces a value outside the semver grammar is a miss and falls
// through to the next.
func ResolveVersion(ctx context.Context, oracle Oracle) (string, error) {
	tag, err := oracle.LatestReleaseTag(ctx)
	if err != nil {
		logrus.Infof("No usable upstream release tag: %v", err)
	} else if v := Normalize(tag); v != "" {
		return v, nil
	} else {
		logrus.Warnf("Upstream release tag %q is not a semantic version, ignoring it", tag)
	}

	manifest, err := oracle.ManifestVersion(ctx)
	if err != nil {
		logrus.Infof("No usable manifest version: %v", err)
	} else if v := Normalize(manifest); v != "" {
		return v, nil
	} else {
		logrus.Warnf("Manifest version %q is not a semantic version, ignoring it", manifest)
	}

	commit, err := oracle.LatestCommit(ctx)
	if err != nil {
		return "", &VersionResolutionError{
			reason: fmt.Sprintf("cannot resolve upstream version: no release tag, no manifest version, and no default-branch commit: %v", err),
		}
	}
	if len(commit) < 7 {
		return "", &VersionResolutionError{
			reason: fmt.Sprintf("cannot resolve upstream version: default-branch commit %q is too short to synthesize one", commit),
		}
	}
	return "0.0.0+" + commit[:7], nil
}
