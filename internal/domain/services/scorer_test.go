package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/models"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(config.DefaultTrustWeights(), testLogger())
	require.NoError(t, err)
	return s
}

func TestNewScorerRejectsBadWeights(t *testing.T) {
	_, err := NewScorer(config.TrustWeights{
		ControlEffectiveness: 0.5,
		EvidenceQuality:      0.3,
		CoverageDepth:        0.1,
		Trend:                0.05,
	}, testLogger())

	var invalid *models.InvalidWeightConfigurationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "trust weights", invalid.Scope)
	assert.InDelta(t, 0.95, invalid.Sum, 1e-9)
}

func TestCalculateFrameworkScore(t *testing.T) {
	s := newTestScorer(t)
	fw := &models.Framework{
		ID: "fw",
		Domains: []models.Domain{
			{
				ID: "d1", Weight: 1.0,
				Controls: []models.Control{
					{ID: "C-01", Weight: 1.0, TargetMaturity: 80},
					{ID: "C-02", Weight: 1.0, TargetMaturity: 80},
				},
			},
		},
	}
	statuses := []models.ControlStatus{
		{ControlID: "C-01", CurrentMaturity: 40},  // ratio 50
		{ControlID: "C-02", CurrentMaturity: 120}, // clipped to 100
	}

	score := s.CalculateFrameworkScore(fw, statuses)
	assert.InDelta(t, 75.0, score.Score, 1e-9)
	assert.Equal(t, 75.0, score.DisplayScore)
	assert.Equal(t, 2, score.ControlsAssessed)
	assert.Equal(t, 2, score.ControlsTotal)
	assert.InDelta(t, 75.0, score.DomainScores["d1"], 1e-9)
}

func TestCalculateFrameworkScoreUnassessedControlsScoreZero(t *testing.T) {
	s := newTestScorer(t)
	fw := &models.Framework{
		ID: "fw",
		Domains: []models.Domain{
			{
				ID: "d1", Weight: 1.0,
				Controls: []models.Control{
					{ID: "C-01", Weight: 1.0, TargetMaturity: 80},
					{ID: "C-02", Weight: 1.0, TargetMaturity: 80},
				},
			},
		},
	}
	statuses := []models.ControlStatus{{ControlID: "C-01", CurrentMaturity: 80}}

	score := s.CalculateFrameworkScore(fw, statuses)
	assert.InDelta(t, 50.0, score.Score, 1e-9)
	assert.Equal(t, 1, score.ControlsAssessed)
}

func TestCalculateFrameworkScoreDomainWeights(t *testing.T) {
	s := newTestScorer(t)
	fw := &models.Framework{
		ID: "fw",
		Domains: []models.Domain{
			{
				ID: "heavy", Weight: 0.75,
				Controls: []models.Control{{ID: "C-01", Weight: 1.0, TargetMaturity: 100}},
			},
			{
				ID: "light", Weight: 0.25,
				Controls: []models.Control{{ID: "C-02", Weight: 1.0, TargetMaturity: 100}},
			},
		},
	}
	statuses := []models.ControlStatus{
		{ControlID: "C-01", CurrentMaturity: 100},
		{ControlID: "C-02", CurrentMaturity: 0},
	}

	score := s.CalculateFrameworkScore(fw, statuses)
	assert.InDelta(t, 75.0, score.Score, 1e-9)
}

func TestCalculateOverallEqualWeights(t *testing.T) {
	s := newTestScorer(t)
	scores := []models.FrameworkScore{
		{FrameworkID: "a", Score: 80},
		{FrameworkID: "b", Score: 60},
	}

	overall, err := s.CalculateOverall(scores, nil)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, overall, 1e-9)
}

func TestCalculateOverallExplicitWeights(t *testing.T) {
	s := newTestScorer(t)
	scores := []models.FrameworkScore{
		{FrameworkID: "a", Score: 80},
		{FrameworkID: "b", Score: 60},
	}

	overall, err := s.CalculateOverall(scores, map[string]float64{"a": 0.75, "b": 0.25})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, overall, 1e-9)
}

func TestCalculateOverallRejectsBadWeights(t *testing.T) {
	s := newTestScorer(t)
	scores := []models.FrameworkScore{{FrameworkID: "a", Score: 80}}

	_, err := s.CalculateOverall(scores, map[string]float64{"a": 0.8})
	var invalid *models.InvalidWeightConfigurationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "overall score weights", invalid.Scope)
}

func TestCalculateOverallEmpty(t *testing.T) {
	s := newTestScorer(t)
	overall, err := s.CalculateOverall(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, overall)
}

func TestTrustScore(t *testing.T) {
	s := newTestScorer(t)

	full := s.TrustScore(models.TrustFactors{
		ControlEffectiveness: 100, EvidenceQuality: 100, CoverageDepth: 100, Trend: 100,
	})
	assert.InDelta(t, 100.0, full, 1e-9)

	// 0.4*80 + 0.25*60 + 0.2*40 + 0.15*50 = 62.5
	mixed := s.TrustScore(models.TrustFactors{
		ControlEffectiveness: 80, EvidenceQuality: 60, CoverageDepth: 40, Trend: 50,
	})
	assert.InDelta(t, 62.5, mixed, 1e-9)
}

func TestDeriveTrustFactors(t *testing.T) {
	s := newTestScorer(t)
	scores := []models.FrameworkScore{
		{FrameworkID: "a", ControlsAssessed: 3, ControlsTotal: 4},
	}
	statuses := map[string][]models.ControlStatus{
		"a": {
			{ControlID: "C-01", CurrentMaturity: 80, EvidenceRefs: []string{"log"}},
			{ControlID: "C-02", CurrentMaturity: 60, EvidenceRefs: []string{"report"}},
			{ControlID: "C-03", CurrentMaturity: 40},
		},
	}

	factors := s.DeriveTrustFactors(70, scores, statuses, nil)
	assert.InDelta(t, 70.0, factors.ControlEffectiveness, 1e-9)
	assert.InDelta(t, 66.66666, factors.EvidenceQuality, 1e-3)
	assert.InDelta(t, 75.0, factors.CoverageDepth, 1e-9)
	assert.InDelta(t, 50.0, factors.Trend, 1e-9, "neutral without history")

	previous := 60.0
	factors = s.DeriveTrustFactors(70, scores, statuses, &previous)
	assert.InDelta(t, 60.0, factors.Trend, 1e-9)
}

func TestTrendDirection(t *testing.T) {
	prev := 70.0
	assert.Equal(t, models.TrendStable, TrendDirection(80, nil))
	assert.Equal(t, models.TrendImproving, TrendDirection(80, &prev))
	assert.Equal(t, models.TrendDeclining, TrendDirection(66, &prev))
	assert.Equal(t, models.TrendStable, TrendDirection(71, &prev))
	assert.Equal(t, models.TrendStable, TrendDirection(67, &prev))

	zero := 0.0
	assert.Equal(t, models.TrendStable, TrendDirection(80, &zero))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-5, 0, 100))
	assert.Equal(t, 100.0, clamp(150, 0, 100))
	assert.Equal(t, 42.5, clamp(42.5, 0, 100))
}
