// Package trigger parses the repository-dispatch payload that starts a
// build-or-skip cycle.
package trigger

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/maccel-fedora/rpm-builder/internal/platform"
)

const (
	DefaultFedoraVersion = 42

	// payload value meaning "resolve the current upstream version"
	versionAuto = "latest"
)

// payload is the raw client_payload of the dispatch event. fedora_version
// arrives as a string because the dispatching workflow interpolates it from
// a workflow input.
type payload struct {
	KernelVersion string `json:"kernel_version"`
	FedoraVersion string `json:"fedora_version"`
	TriggerRepo   string `json:"trigger_repo"`
	ForceRebuild  bool   `json:"force_rebuild"`
	MaccelVersion string `json:"maccel_version"`
}

// BuildRequest is a normalized, validated trigger. MaccelVersion is empty
// when the upstream version should be auto-detected. TriggerRepo is kept
// for the audit trail only; nothing is derived from it.
type BuildRequest struct {
	ID            uuid.UUID
	Target        platform.Target
	MaccelVersion string
	ForceRebuild  bool
	TriggerRepo   string
}

// ParsePayload decodes and normalizes a dispatch payload, applying the
// documented defaults (fedora_version "42", maccel_version "latest",
// force_rebuild false). The kernel version is validated here so that a
// malformed trigger is rejected before any external query.
func ParsePayload(data []byte) (BuildRequest, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return BuildRequest{}, fmt.Errorf("malformed trigger payload: %w", err)
	}
	if p.KernelVersion == "" {
		return BuildRequest{}, fmt.Errorf("trigger payload has no kernel_version")
	}

	fedora := DefaultFedoraVersion
	if p.FedoraVersion != "" {
		parsed, err := strconv.Atoi(p.FedoraVersion)
		if err != nil {
			return BuildRequest{}, fmt.Errorf("trigger payload fedora_version %q is not a number", p.FedoraVersion)
		}
		fedora = parsed
	}

	version := p.MaccelVersion
	if version == versionAuto {
		version = ""
	}

	request := BuildRequest{
		ID: uuid.New(),
		Target: platform.Target{
			KernelVersion: p.KernelVersion,
			FedoraVersion: fedora,
		},
		MaccelVersion: version,
		ForceRebuild:  p.ForceRebuild,
		TriggerRepo:   p.TriggerRepo,
	}
	if err := request.Target.Validate(); err != nil {
		return BuildRequest{}, err
	}
	return request, nil
}
