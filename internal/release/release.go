// Package release defines the identity under which a built artifact set is
// published and the names and shapes of the assets attached to it.
package release

import (
	"fmt"

	"github.com/maccel-fedora/rpm-builder/internal/platform"
)

// Product is the upstream project every artifact set in this pipeline is
// built from.
const Product = "maccel"

// Fixed asset names attached to every release alongside the RPMs.
const (
	ProvenanceAsset = "build-provenance.json"
	ChecksumAsset   = "checksums.txt"
)

// Tag derives the release tag for a (kernel version, source version) pair.
// It is a pure function of its inputs: both fields appear verbatim between
// fixed literal separators, so identical pairs always map to the identical
// tag and lookups stay idempotent.
func Tag(kernelVersion, sourceVersion string) string {
	return "kernel-" + kernelVersion + "-" + Product + "-" + sourceVersion
}

// TagPrefix returns the prefix shared by all tags for a given kernel
// version, regardless of source version.
func TagPrefix(kernelVersion string) string {
	return "kernel-" + kernelVersion + "-" + Product + "-"
}

// AssetFilenames lists the filenames a complete artifact set is expected to
// carry: the kernel module RPM, the CLI RPM, the checksum manifest, and the
// provenance record. The RPM names embed the fcN and arch from the kernel
// version string, which is what rpmbuild stamps into them.
func AssetFilenames(kernel platform.Kernel, sourceVersion string) []string {
	return []string{
		fmt.Sprintf("%s-%s-1.fc%d.%s.rpm", Product, sourceVersion, kernel.Fedora, kernel.Arch),
		fmt.Sprintf("%s-cli-%s-1.fc%d.%s.rpm", Product, sourceVersion, kernel.Fedora, kernel.Arch),
		ChecksumAsset,
		ProvenanceAsset,
	}
}

// DownloadURL builds the public download location of a release asset.
func DownloadURL(host, owner, repo, tag, filename string) string {
	return fmt.Sprintf("https://%s/%s/%s/releases/download/%s/%s", host, owner, repo, tag, filename)
}
