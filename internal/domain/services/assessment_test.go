package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/models"
)

// newComputeOnlyEngine wires the engine without store, cache, or publisher
func newComputeOnlyEngine(t *testing.T) *AssessmentEngine {
	t.Helper()
	log := testLogger()
	cat, err := NewCatalog(config.CatalogConfig{}, log)
	require.NoError(t, err)
	scorer, err := NewScorer(config.DefaultTrustWeights(), log)
	require.NoError(t, err)

	return NewAssessmentEngine(
		cat,
		NewControlMapper(config.DefaultMappingConfig(), log),
		NewGapAnalyzer(log),
		scorer,
		nil, nil, nil,
		config.AssessmentConfig{},
		log,
	)
}

func gdprFullStatuses() []models.ControlStatus {
	ids := []string{"ART5-01", "ART30-01", "ART25-01", "ART32-01", "ART33-01", "ART34-01"}
	statuses := make([]models.ControlStatus, 0, len(ids))
	for _, id := range ids {
		statuses = append(statuses, models.ControlStatus{
			ControlID:       id,
			CurrentMaturity: 100,
			EvidenceRefs:    []string{"evidence/" + id},
		})
	}
	return statuses
}

func TestRunAssessmentSingleFrameworkAtTarget(t *testing.T) {
	e := newComputeOnlyEngine(t)
	result, err := e.RunAssessment(context.Background(), &models.AssessmentRequest{
		SessionID:    "session-1",
		FrameworkIDs: []string{"gdpr"},
		Statuses:     map[string][]models.ControlStatus{"gdpr": gdprFullStatuses()},
	})
	require.NoError(t, err)

	require.Len(t, result.FrameworkScores, 1)
	fs := result.FrameworkScores[0]
	assert.Equal(t, "gdpr", fs.FrameworkID)
	assert.InDelta(t, 100.0, fs.Score, 1e-9)
	assert.Equal(t, 6, fs.ControlsAssessed)
	assert.Equal(t, 6, fs.ControlsTotal)

	assert.Empty(t, result.Gaps, "everything at target leaves no gaps")
	assert.Empty(t, result.Roadmap)
	assert.Empty(t, result.Recommendations)

	assert.InDelta(t, 100.0, result.Overall.Score, 1e-9)
	assert.Equal(t, models.TrendStable, result.Overall.TrendDirection, "no history means stable")
	assert.InDelta(t, 100.0, result.Overall.Factors.EvidenceQuality, 1e-9)
	assert.InDelta(t, 100.0, result.Overall.Factors.CoverageDepth, 1e-9)
	// 0.4*100 + 0.25*100 + 0.2*100 + 0.15*50 (neutral trend)
	assert.InDelta(t, 92.5, result.Overall.TrustScore, 1e-9)
}

func TestRunAssessmentDefaultsToAllFrameworks(t *testing.T) {
	e := newComputeOnlyEngine(t)
	result, err := e.RunAssessment(context.Background(), &models.AssessmentRequest{
		SessionID: "session-2",
	})
	require.NoError(t, err)

	assert.Len(t, result.FrameworkScores, 4)
	assert.NotEmpty(t, result.Gaps, "nothing assessed means every control is a gap")

	// Gaps arrive ordered by severity descending
	for i := 1; i < len(result.Gaps); i++ {
		assert.GreaterOrEqual(t,
			result.Gaps[i-1].Severity.Rank(),
			result.Gaps[i].Severity.Rank())
	}

	// Every gap carries the assessment id
	for _, g := range result.Gaps {
		assert.Equal(t, result.ID, g.AssessmentID)
	}

	assert.NotEmpty(t, result.Recommendations)
	assert.NotEmpty(t, result.Roadmap)
}

func TestRunAssessmentRoadmapPhases(t *testing.T) {
	e := newComputeOnlyEngine(t)
	result, err := e.RunAssessment(context.Background(), &models.AssessmentRequest{
		SessionID:    "session-3",
		FrameworkIDs: []string{"sox"},
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.Roadmap)
	total := 0
	for _, phase := range result.Roadmap {
		assert.Positive(t, phase.GapCount, "empty phases are dropped")
		assert.Len(t, phase.Actions, phase.GapCount)
		total += phase.GapCount
	}
	assert.Equal(t, len(result.Gaps), total)
}

func TestRunAssessmentUnknownFramework(t *testing.T) {
	e := newComputeOnlyEngine(t)
	_, err := e.RunAssessment(context.Background(), &models.AssessmentRequest{
		SessionID:    "session-4",
		FrameworkIDs: []string{"gdpr", "nist"},
	})

	var unknown *models.UnknownFrameworkError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nist", unknown.FrameworkID)
}

func TestRunAssessmentUnknownControl(t *testing.T) {
	e := newComputeOnlyEngine(t)
	_, err := e.RunAssessment(context.Background(), &models.AssessmentRequest{
		SessionID:    "session-5",
		FrameworkIDs: []string{"gdpr"},
		Statuses: map[string][]models.ControlStatus{
			"gdpr": {{ControlID: "ART99-01", CurrentMaturity: 50}},
		},
	})

	var unknown *models.UnknownControlError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ART99-01", unknown.ControlID)
}

func TestMapFrameworks(t *testing.T) {
	e := newComputeOnlyEngine(t)
	mappings, err := e.MapFrameworks("sox", "isae3000")
	require.NoError(t, err)
	assert.NotEmpty(t, mappings)
	for _, mp := range mappings {
		assert.Equal(t, "sox", mp.SourceFrameworkID)
		assert.Equal(t, "isae3000", mp.TargetFrameworkID)
		assert.GreaterOrEqual(t, mp.OverlapPercent, config.DefaultMappingConfig().MinOverlap)
	}
}

func TestAnalyzeGapsStandalone(t *testing.T) {
	e := newComputeOnlyEngine(t)
	asOf := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	gaps, err := e.AnalyzeGaps([]string{"gdpr"}, map[string][]models.ControlStatus{
		"gdpr": gdprFullStatuses(),
	}, asOf)
	require.NoError(t, err)
	assert.Empty(t, gaps, "everything at target leaves no gaps")

	// No statuses: every gdpr control surfaces as a missing-control gap
	gaps, err = e.AnalyzeGaps([]string{"gdpr"}, nil, asOf)
	require.NoError(t, err)
	require.Len(t, gaps, 6)
	for _, g := range gaps {
		assert.Equal(t, models.GapTypeMissingControl, g.Type)
		assert.Equal(t, uuid.Nil, g.AssessmentID, "standalone analysis belongs to no assessment")
	}

	// Deterministic across invocations for the same asOf
	again, err := e.AnalyzeGaps([]string{"gdpr"}, nil, asOf)
	require.NoError(t, err)
	assert.Equal(t, gaps, again)

	_, err = e.AnalyzeGaps([]string{"nist"}, nil, asOf)
	var unknown *models.UnknownFrameworkError
	require.ErrorAs(t, err, &unknown)
}

func TestGetAssessmentWithoutBackends(t *testing.T) {
	e := newComputeOnlyEngine(t)
	result, err := e.GetAssessment(context.Background(), "missing-session")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestBuildRecommendationsGroupsByConcern(t *testing.T) {
	gaps := []models.ComplianceGap{
		{ControlID: "C-01", Severity: models.GapSeverityCritical, Type: models.GapTypePartialImplementation},
		{ControlID: "C-02", Severity: models.GapSeverityHigh, Type: models.GapTypeMissingControl},
		{ControlID: "C-02", Severity: models.GapSeverityMedium, Type: models.GapTypeEvidenceGap},
	}
	scores := []models.FrameworkScore{
		{FrameworkID: "fw", ControlsAssessed: 1, ControlsTotal: 3},
	}

	recs := buildRecommendations(gaps, scores)
	require.Len(t, recs, 4)
	assert.Equal(t, models.GapSeverityCritical, recs[0].Priority)
	assert.Equal(t, []string{"C-01"}, recs[0].ControlIDs)
	assert.Contains(t, recs[3].Title, "fw")
}
