package platform

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Fedora versions outside this range are almost certainly typos, but the
// pipeline has built for out-of-support releases before, so they only warn.
const (
	FedoraVersionMin = 35
	FedoraVersionMax = 50
)

// Kernel version strings as dnf reports them: MAJOR.MINOR.PATCH-RELEASE.fcN.ARCH
var kernelVersionRe = regexp.MustCompile(`^([0-9]+\.[0-9]+\.[0-9]+)-([0-9]+)\.fc([0-9]+)\.(x86_64|aarch64)$`)

// ValidationError is returned for malformed target input. The caller must
// fix the input and retry; the value is never auto-corrected.
type ValidationError struct {
	reason string
}

func (e *ValidationError) Error() string {
	return e.reason
}

// Kernel is the parsed form of a full kernel version string.
type Kernel struct {
	Version string
	Release string
	Fedora  int
	Arch    string
}

// String reassembles the canonical kernel version string.
func (k Kernel) String() string {
	return fmt.Sprintf("%s-%s.fc%d.%s", k.Version, k.Release, k.Fedora, k.Arch)
}

// ParseKernel validates a kernel version string against the required grammar
// and splits it into its components.
func ParseKernel(kernelVersion string) (Kernel, error) {
	m := kernelVersionRe.FindStringSubmatch(kernelVersion)
	if m == nil {
		return Kernel{}, &ValidationError{
			reason: fmt.Sprintf("kernel version %q does not match MAJOR.MINOR.PATCH-RELEASE.fcN.ARCH", kernelVersion),
		}
	}
	fedora, err := strconv.Atoi(m[3])
	if err != nil {
		// unreachable, the regexp only admits digits
		return Kernel{}, &ValidationError{reason: err.Error()}
	}
	return Kernel{
		Version: m[1],
		Release: m[2],
		Fedora:  fedora,
		Arch:    m[4],
	}, nil
}

// Target describes the platform a build is requested for. It is passed by
// value through the resolution call chain and never mutated.
//
// FedoraVersion is the separately supplied value from the trigger payload.
// It is authoritative over the .fcN component embedded in KernelVersion;
// a mismatch between the two is logged but not rejected.
type Target struct {
	KernelVersion string
	FedoraVersion int
}

// Validate checks the kernel version grammar. It returns a ValidationError
// on malformed input and records advisories for suspicious but acceptable
// Fedora versions.
func (t Target) Validate() error {
	kernel, err := ParseKernel(t.KernelVersion)
	if err != nil {
		return err
	}

	if t.FedoraVersion != 0 {
		if t.FedoraVersion < FedoraVersionMin || t.FedoraVersion > FedoraVersionMax {
			logrus.Warnf("Fedora version %d is outside the expected range %d-%d",
				t.FedoraVersion, FedoraVersionMin, FedoraVersionMax)
		}
		if t.FedoraVersion != kernel.Fedora {
			logrus.Warnf("Supplied Fedora version %d disagrees with fc%d embedded in kernel version %q; using the supplied value",
				t.FedoraVersion, kernel.Fedora, t.KernelVersion)
		}
	}

	return nil
}

// Kernel parses the target's kernel version. Callers should Validate first;
// on a malformed kernel version the same ValidationError is returned here.
func (t Target) Kernel() (Kernel, error) {
	return ParseKernel(t.KernelVersion)
}
