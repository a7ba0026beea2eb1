package run

import (
	"sort"

	"churnlens/domain/core"
)

// Manifest is written as run_manifest.json next to the output tables. It
// carries no wall-clock time, so rerunning on the same input and
// configuration reproduces it byte for byte.
type Manifest struct {
	RunID        core.RunID     `json:"run_id"`
	Source       string         `json:"source"`
	DomainPolicy string         `json:"domain_policy"`
	Fingerprint  RunFingerprint `json:"fingerprint"`
	Counts       Counts         `json:"counts"`
	Outputs      []string       `json:"outputs"`
}

// NewManifest creates a manifest whose run ID derives from the input and
// configuration hashes
func NewManifest(source string, input core.InputHash, config core.ConfigHash, codeVersion string) *Manifest {
	return &Manifest{
		RunID:       core.NewRunID(input, config),
		Source:      source,
		Fingerprint: NewRunFingerprint(input, config, codeVersion),
	}
}

// AddOutputs records output files, keeping the list sorted and unique
func (m *Manifest) AddOutputs(files ...string) {
	seen := make(map[string]bool, len(m.Outputs)+len(files))
	merged := make([]string, 0, len(m.Outputs)+len(files))
	for _, f := range append(m.Outputs, files...) {
		if !seen[f] {
			seen[f] = true
			merged = append(merged, f)
		}
	}
	sort.Strings(merged)
	m.Outputs = merged
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.Fingerprint.InputHash == "" {
		return core.NewValidationError("run_manifest", "input_hash cannot be empty")
	}
	if m.Fingerprint.ConfigHash == "" {
		return core.NewValidationError("run_manifest", "config_hash cannot be empty")
	}
	if m.Fingerprint.CodeVersion == "" {
		return core.NewValidationError("run_manifest", "code_version cannot be empty")
	}
	if m.Counts.Scored+m.Counts.ScoringErrors != m.Counts.RowsAccepted {
		return core.NewValidationError("run_manifest", "scored and failed records do not add up to accepted rows")
	}
	return nil
}
