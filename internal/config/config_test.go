package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, "complyguard-lab", cfg.App.Name)
	assert.NotZero(t, cfg.Server.HTTPPort)
	assert.NotZero(t, cfg.Server.GRPCPort)

	weights := cfg.Scoring.TrustWeights
	sum := weights.ControlEffectiveness + weights.EvidenceQuality + weights.CoverageDepth + weights.Trend
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestDefaultTrustWeights(t *testing.T) {
	w := DefaultTrustWeights()
	assert.Equal(t, 0.40, w.ControlEffectiveness)
	assert.Equal(t, 0.25, w.EvidenceQuality)
	assert.Equal(t, 0.20, w.CoverageDepth)
	assert.Equal(t, 0.15, w.Trend)
}

func TestDefaultMappingConfig(t *testing.T) {
	m := DefaultMappingConfig()
	assert.Equal(t, 30.0, m.MinOverlap)
	assert.Equal(t, 90.0, m.DirectOverlap)
	assert.Equal(t, 50.0, m.PartialOverlap)
}

func TestDefaultNotificationConfig(t *testing.T) {
	n := DefaultNotificationConfig()
	assert.Equal(t, "72h0m0s", n.SupervisoryDeadline.String())
	assert.Equal(t, "168h0m0s", n.DataSubjectDeadline.String())
	assert.Contains(t, n.Jurisdictions, "EU")
	assert.Contains(t, n.Jurisdictions, "DE")
}
