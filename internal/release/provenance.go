package release

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var commitRe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Provenance is the build-provenance record the publish pipeline attaches to
// every artifact set. Older releases may lack fields or carry malformed
// documents, so parsing is strict only about what the freshness check needs.
type Provenance struct {
	KernelVersion  string `json:"kernel_version"`
	MaccelVersion  string `json:"maccel_version"`
	MaccelCommit   string `json:"maccel_commit"`
	FedoraVersion  string `json:"fedora_version"`
	Architecture   string `json:"architecture"`
	BuildTimestamp string `json:"build_timestamp"`
}

// ParseProvenance decodes a provenance document and checks that it records a
// usable source commit. Any defect is an error; the caller treats that as
// "provenance unavailable" and rebuilds.
func ParseProvenance(data []byte) (*Provenance, error) {
	var p Provenance
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("malformed provenance record: %w", err)
	}
	if p.MaccelCommit == "" {
		return nil, fmt.Errorf("provenance record has no %s_commit field", Product)
	}
	if !commitRe.MatchString(p.MaccelCommit) {
		return nil, fmt.Errorf("provenance commit %q is not a full lowercase hex commit", p.MaccelCommit)
	}
	return &p, nil
}
