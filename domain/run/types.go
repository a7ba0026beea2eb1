package run

import (
	"crypto/sha256"
	"fmt"

	"churnlens/domain/core"
)

// Counts tracks how many rows survived each stage
type Counts struct {
	RowsRead      int `json:"rows_read"`
	RowsAccepted  int `json:"rows_accepted"`
	RowsRejected  int `json:"rows_rejected"`
	Scored        int `json:"scored"`
	ScoringErrors int `json:"scoring_errors"`
}

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	InputHash   core.InputHash  `json:"input_hash"`
	ConfigHash  core.ConfigHash `json:"config_hash"`
	CodeVersion string          `json:"code_version"`
	Fingerprint core.Hash       `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(input core.InputHash, config core.ConfigHash, codeVersion string) RunFingerprint {
	return RunFingerprint{
		InputHash:   input,
		ConfigHash:  config,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(input, config, codeVersion),
	}
}

// computeRunFingerprint generates deterministic hash from all determinism parameters
func computeRunFingerprint(input core.InputHash, config core.ConfigHash, codeVersion string) core.Hash {
	data := fmt.Sprintf("input:%s|config:%s|code:%s", input, config, codeVersion)
	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}
