package config

import (
	"os"
	"path/filepath"
	"testing"

	"churnlens/internal/errors"
	"churnlens/internal/ingest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ingest.PolicyReject, cfg.Pipeline.DomainPolicy)
	assert.Equal(t, 0.05, cfg.Pipeline.MaxScoringErrorRate)
}

func TestApplyYAMLOverlaysDefaults(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyYAML([]byte(`
scales:
  balance:
    cutoffs: [0, 60000, 120000]
risk:
  weights:
    complaint: 50
pipeline:
  domain_policy: drop
`))
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 60000, 120000}, cfg.Thresholds.Scales.Balance.Cutoffs)
	assert.Equal(t, []string{"Zero", "Low", "Medium", "High"}, cfg.Thresholds.Scales.Balance.Labels)
	assert.Equal(t, 50.0, cfg.Thresholds.Risk.Weights.Complaint)
	assert.Equal(t, 15.0, cfg.Thresholds.Risk.Weights.Inactivity)
	assert.Equal(t, ingest.PolicyDrop, cfg.Pipeline.DomainPolicy)
	assert.NoError(t, cfg.Validate())
}

func TestApplyYAMLRejectsUnknownKeys(t *testing.T) {
	err := Default().ApplyYAML([]byte("scales:\n  balanse:\n    cutoffs: [1]\n"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestApplyYAMLEmpty(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyYAML(nil))
	assert.Equal(t, Default().Hash(), cfg.Hash())
}

func TestValidateRejectsWeakComplaint(t *testing.T) {
	cfg := Default()
	cfg.Thresholds.Risk.Weights.Complaint = 40
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestValidateRejectsMismatchedLabels(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyYAML([]byte("scales:\n  tenure:\n    cutoffs: [2, 6, 8]\n")))
	assert.Error(t, cfg.Validate())
}

func TestValidateErrorRate(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.MaxScoringErrorRate = 1.5
	assert.Error(t, cfg.Validate())
}

func TestHashTracksThresholdsOnly(t *testing.T) {
	a, b := Default(), Default()
	b.Pipeline.Workers = 16
	b.Paths.OutputDir = "/elsewhere"
	assert.Equal(t, a.Hash(), b.Hash())

	b.Thresholds.Risk.Weights.Inactivity = 10
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  max_scoring_error_rate: 0.1\n"), 0o644))

	t.Setenv("CHURN_INPUT", "customers.csv")
	t.Setenv("CHURN_OUTPUT_DIR", dir)
	t.Setenv("CHURN_CONFIG", path)
	t.Setenv("CHURN_DOMAIN_POLICY", "DROP")
	t.Setenv("CHURN_WORKERS", "3")
	t.Setenv("CHURN_SERVE_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "customers.csv", cfg.Paths.Input)
	assert.Equal(t, dir, cfg.Paths.OutputDir)
	assert.Equal(t, 0.1, cfg.Pipeline.MaxScoringErrorRate)
	assert.Equal(t, ingest.PolicyDrop, cfg.Pipeline.DomainPolicy)
	assert.Equal(t, 3, cfg.Pipeline.Workers)
	assert.Equal(t, "9999", cfg.Server.Port)
}

func TestLoadBadPolicy(t *testing.T) {
	t.Setenv("CHURN_CONFIG", "")
	t.Setenv("CHURN_DOMAIN_POLICY", "ignore")
	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
