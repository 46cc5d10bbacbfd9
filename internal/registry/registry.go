// Package registry reads previously published artifact sets. The registry
// is written only by the publish pipeline; everything here is read-only.
package registry

import (
	"context"
)

// Asset is one downloadable file attached to a published artifact set.
type Asset struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// ArtifactSet is what the registry holds under one release tag. It is
// created once at publish time and never mutated in place.
type ArtifactSet struct {
	Tag    string  `json:"tag"`
	Assets []Asset `json:"assets"`
}

// Find returns the asset with the given filename, or nil.
func (s *ArtifactSet) Find(filename string) *Asset {
	for i := range s.Assets {
		if s.Assets[i].Filename == filename {
			return &s.Assets[i]
		}
	}
	return nil
}

// Registry is the queryable store of published artifact sets.
type Registry interface {
	// Exists reports whether an artifact set is published under tag.
	Exists(ctx context.Context, tag string) (bool, error)
	// Assets returns the artifact set published under tag.
	Assets(ctx context.Context, tag string) (*ArtifactSet, error)
	// List returns all tags sharing the given prefix.
	List(ctx context.Context, tagPrefix string) ([]string, error)
	// FetchAsset downloads one asset's content.
	FetchAsset(ctx context.Context, asset Asset) ([]byte, error)
}
