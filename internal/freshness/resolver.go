// Package freshness decides whether a requested build is already satisfied
// by a previously published artifact set.
//
// The decision errs toward rebuilding: a spurious rebuild costs CI time, a
// stale artifact served as fresh costs correctness. Only the single fully
// determined path (release found, not forced, provenance commit resolved and
// equal to the current upstream commit) skips the build.
package freshness

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/maccel-fedora/rpm-builder/internal/platform"
	"github.com/maccel-fedora/rpm-builder/internal/registry"
	"github.com/maccel-fedora/rpm-builder/internal/release"
	"github.com/maccel-fedora/rpm-builder/internal/upstream"
)

// Result is the resolver's output. Existing is set only when the decision is
// BuildSkippable. Reason is a short machine-readable token describing which
// branch of the decision procedure fired.
type Result struct {
	Decision Decision              `json:"decision"`
	Tag      string                `json:"tag"`
	Version  string                `json:"version"`
	Existing *registry.ArtifactSet `json:"existing,omitempty"`
	Reason   string                `json:"reason"`
}

// Resolver performs the freshness check. Both collaborators are read-only;
// resolving never writes, publishes, or deletes anything.
type Resolver struct {
	Registry registry.Registry
	Oracle   upstream.Oracle
}

// Resolve decides whether a build for target at requestedVersion is
// required. An empty requestedVersion means "resolve the current upstream
// version". The only errors returned are a platform.ValidationError for
// malformed targets and an upstream.VersionResolutionError when no version
// can be determined; every other failure is absorbed into a BuildRequired
// result.
func (r *Resolver) Resolve(ctx context.Context, target platform.Target, requestedVersion string, forceRebuild bool) (Result, error) {
	if err := target.Validate(); err != nil {
		return Result{}, err
	}

	version := requestedVersion
	if version == "" {
		resolved, err := upstream.ResolveVersion(ctx, r.Oracle)
		if err != nil {
			return Result{}, err
		}
		version = resolved
	}

	tag := release.Tag(target.KernelVersion, version)
	log := logrus.WithFields(logrus.Fields{
		"tag":     tag,
		"version": version,
	})

	required := func(reason string) Result {
		return Result{Decision: BuildRequired, Tag: tag, Version: version, Reason: reason}
	}

	exists, err := r.Registry.Exists(ctx, tag)
	if err != nil {
		log.Warnf("Release registry lookup failed, assuming a build is required: %v", err)
		return required("registry-unreachable"), nil
	}
	if !exists {
		log.Info("No existing release, build required")
		return required("no-existing-release"), nil
	}

	// checked after the existence lookup so that forcing a rebuild of a
	// nonexistent release looks the same as an ordinary build
	if forceRebuild {
		log.Info("Existing release found but rebuild was forced")
		return required("forced"), nil
	}

	currentCommit, err := r.Oracle.LatestCommit(ctx)
	if err != nil {
		log.Warnf("Cannot resolve current upstream commit, assuming a build is required: %v", err)
		return required("oracle-unreachable"), nil
	}

	existing, err := r.Registry.Assets(ctx, tag)
	if err != nil {
		log.Warnf("Cannot list release assets, assuming a build is required: %v", err)
		return required("assets-unreadable"), nil
	}

	provenanceCommit, err := r.provenanceCommit(ctx, existing)
	if err != nil {
		log.Warnf("Cannot extract provenance commit, assuming a build is required: %v", err)
		return required("provenance-unavailable"), nil
	}

	// full-string, case-sensitive equality; prefixes never match
	if provenanceCommit != currentCommit {
		log.WithFields(logrus.Fields{
			"provenance_commit": provenanceCommit,
			"current_commit":    currentCommit,
		}).Info("Existing release was built from an older commit, build required")
		return required("commit-mismatch"), nil
	}

	log.Info("Existing release is up to date, build skippable")
	return Result{
		Decision: BuildSkippable,
		Tag:      tag,
		Version:  version,
		Existing: existing,
		Reason:   "up-to-date",
	}, nil
}

func (r *Resolver) provenanceCommit(ctx context.Context, existing *registry.ArtifactSet) (string, error) {
	asset := existing.Find(release.ProvenanceAsset)
	if asset == nil {
		return "", &missingProvenanceError{tag: existing.Tag}
	}
	body, err := r.Registry.FetchAsset(ctx, *asset)
	if err != nil {
		return "", err
	}
	provenance, err := release.ParseProvenance(body)
	if err != nil {
		return "", err
	}
	return provenance.MaccelCommit, nil
}

type missingProvenanceError struct {
	tag string
}

func (e *missingProvenanceError) Error() string {
	return "release " + e.tag + " has no " + release.ProvenanceAsset + " asset"
}
