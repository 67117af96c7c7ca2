package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complyguard-lab/internal/domain/models"
)

var analysisTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func analyzerSnapshot() *CatalogSnapshot {
	fw := &models.Framework{
		ID: "fw",
		Domains: []models.Domain{
			{
				ID: "d1", Name: "Primary", RiskLevel: models.RiskLevelHigh, Weight: 1.0,
				Controls: []models.Control{
					{ID: "C-01", Name: "First", TargetMaturity: 100, Evidence: []string{"log"}},
					{ID: "C-02", Name: "Second", TargetMaturity: 100},
					{ID: "C-03", Name: "Third", TargetMaturity: 100},
					{ID: "C-04", Name: "Fourth", TargetMaturity: 100},
					{ID: "C-05", Name: "Fifth", TargetMaturity: 80},
				},
			},
		},
	}
	return mapperSnapshot(fw)
}

func TestAnalyzeGapsSeverityFromMaturityDelta(t *testing.T) {
	a := NewGapAnalyzer(testLogger())
	statuses := []models.ControlStatus{
		{ControlID: "C-01", CurrentMaturity: 40},  // delta 60 -> critical
		{ControlID: "C-02", CurrentMaturity: 55},  // delta 45 -> high
		{ControlID: "C-03", CurrentMaturity: 80},  // delta 20 -> medium
		{ControlID: "C-04", CurrentMaturity: 95},  // delta 5  -> low
		{ControlID: "C-05", CurrentMaturity: 100}, // at target -> no gap
	}

	gaps, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", statuses, nil, analysisTime)
	require.NoError(t, err)
	require.Len(t, gaps, 4)

	bySeverity := map[string]models.ComplianceGap{}
	for _, g := range gaps {
		bySeverity[g.ControlID] = g
		assert.Equal(t, models.GapTypePartialImplementation, g.Type)
		assert.Equal(t, models.GapStatusIdentified, g.Status)
	}

	assert.Equal(t, models.GapSeverityCritical, bySeverity["C-01"].Severity)
	assert.Equal(t, models.GapSeverityHigh, bySeverity["C-02"].Severity)
	assert.Equal(t, models.GapSeverityMedium, bySeverity["C-03"].Severity)
	assert.Equal(t, models.GapSeverityLow, bySeverity["C-04"].Severity)
}

func TestAnalyzeGapsRemediationWindows(t *testing.T) {
	a := NewGapAnalyzer(testLogger())
	statuses := []models.ControlStatus{
		{ControlID: "C-01", CurrentMaturity: 40},
		{ControlID: "C-02", CurrentMaturity: 55},
		{ControlID: "C-03", CurrentMaturity: 80},
		{ControlID: "C-04", CurrentMaturity: 95},
		{ControlID: "C-05", CurrentMaturity: 100},
	}

	gaps, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", statuses, nil, analysisTime)
	require.NoError(t, err)

	windows := map[string]time.Duration{
		"C-01": 30 * 24 * time.Hour,
		"C-02": 60 * 24 * time.Hour,
		"C-03": 90 * 24 * time.Hour,
		"C-04": 180 * 24 * time.Hour,
	}
	for _, g := range gaps {
		assert.Equal(t, analysisTime.Add(windows[g.ControlID]), g.TargetDate, g.ControlID)
	}
}

func TestAnalyzeGapsUnassessedControlIsMissing(t *testing.T) {
	a := NewGapAnalyzer(testLogger())

	gaps, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", nil, nil, analysisTime)
	require.NoError(t, err)
	require.Len(t, gaps, 5)

	for _, g := range gaps {
		assert.Equal(t, models.GapTypeMissingControl, g.Type)
		assert.Contains(t, g.Description, "no assessment on record")
	}
	// Full shortfall against the target drives severity
	assert.Equal(t, models.GapSeverityCritical, gaps[0].Severity)
}

func TestAnalyzeGapsOrdering(t *testing.T) {
	a := NewGapAnalyzer(testLogger())
	statuses := []models.ControlStatus{
		{ControlID: "C-01", CurrentMaturity: 95}, // low
		{ControlID: "C-02", CurrentMaturity: 40}, // critical
		{ControlID: "C-03", CurrentMaturity: 80}, // medium
		{ControlID: "C-04", CurrentMaturity: 40}, // critical
		{ControlID: "C-05", CurrentMaturity: 100},
	}

	gaps, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", statuses, nil, analysisTime)
	require.NoError(t, err)
	require.Len(t, gaps, 4)

	// Severity descending, then control id for equal severity and date
	assert.Equal(t, "C-02", gaps[0].ControlID)
	assert.Equal(t, "C-04", gaps[1].ControlID)
	assert.Equal(t, "C-03", gaps[2].ControlID)
	assert.Equal(t, "C-01", gaps[3].ControlID)
}

func TestAnalyzeGapsDeterministicIDs(t *testing.T) {
	a := NewGapAnalyzer(testLogger())
	statuses := []models.ControlStatus{{ControlID: "C-01", CurrentMaturity: 40}}

	first, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", statuses, nil, analysisTime)
	require.NoError(t, err)
	second, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", statuses, nil, analysisTime)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// A different analysis time yields different ids
	later, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", statuses, nil, analysisTime.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, later[0].ID)
}

func TestAnalyzeGapsCrossFrameworkEvidence(t *testing.T) {
	a := NewGapAnalyzer(testLogger())
	statuses := []models.ControlStatus{
		{ControlID: "C-01", CurrentMaturity: 100},
		{ControlID: "C-02", CurrentMaturity: 100},
		{ControlID: "C-03", CurrentMaturity: 100},
		{ControlID: "C-04", CurrentMaturity: 100},
		{ControlID: "C-05", CurrentMaturity: 80},
	}
	mappings := []models.ControlMapping{
		{
			SourceFrameworkID: "fw", SourceControlID: "C-01",
			TargetFrameworkID: "other", TargetControlID: "O-01",
			Type: models.MappingTypePartial, OverlapPercent: 68,
			Gaps: []string{`C-01 requires evidence "log" not collected for O-01`},
		},
		// Mappings for other source frameworks are ignored
		{
			SourceFrameworkID: "other", SourceControlID: "O-01",
			TargetFrameworkID: "fw", TargetControlID: "C-01",
			OverlapPercent: 68, Gaps: []string{"x"},
		},
	}

	gaps, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", statuses, mappings, analysisTime)
	require.NoError(t, err)
	require.Len(t, gaps, 1)

	g := gaps[0]
	assert.Equal(t, models.GapTypeEvidenceGap, g.Type)
	assert.Equal(t, models.GapSeverityMedium, g.Severity)
	assert.Equal(t, "C-01", g.ControlID)
	assert.Contains(t, g.Description, "O-01")
}

func TestAnalyzeGapsEvidenceGapPerCounterpart(t *testing.T) {
	a := NewGapAnalyzer(testLogger())
	statuses := []models.ControlStatus{
		{ControlID: "C-01", CurrentMaturity: 100},
		{ControlID: "C-02", CurrentMaturity: 100},
		{ControlID: "C-03", CurrentMaturity: 100},
		{ControlID: "C-04", CurrentMaturity: 100},
		{ControlID: "C-05", CurrentMaturity: 80},
	}
	// One source control mapped to two different counterparts
	mappings := []models.ControlMapping{
		{
			SourceFrameworkID: "fw", SourceControlID: "C-01",
			TargetFrameworkID: "other", TargetControlID: "T-01",
			Type: models.MappingTypePartial, OverlapPercent: 60,
			Gaps: []string{"evidence missing for T-01"},
		},
		{
			SourceFrameworkID: "fw", SourceControlID: "C-01",
			TargetFrameworkID: "other", TargetControlID: "T-02",
			Type: models.MappingTypePartial, OverlapPercent: 60,
			Gaps: []string{"evidence missing for T-02"},
		},
	}

	gaps, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", statuses, mappings, analysisTime)
	require.NoError(t, err)
	require.Len(t, gaps, 2)
	assert.NotEqual(t, gaps[0].ID, gaps[1].ID, "each counterpart gets its own gap record")

	// Still deterministic per counterpart across runs
	again, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", statuses, mappings, analysisTime)
	require.NoError(t, err)
	assert.Equal(t, gaps, again)
}

func TestAnalyzeGapsUnknownControlStatus(t *testing.T) {
	a := NewGapAnalyzer(testLogger())
	statuses := []models.ControlStatus{{ControlID: "C-99", CurrentMaturity: 50}}

	_, err := a.AnalyzeGaps(analyzerSnapshot(), "fw", statuses, nil, analysisTime)
	var unknown *models.UnknownControlError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "C-99", unknown.ControlID)
}

func TestSeverityFromDelta(t *testing.T) {
	assert.Equal(t, models.GapSeverityCritical, severityFromDelta(50))
	assert.Equal(t, models.GapSeverityHigh, severityFromDelta(30))
	assert.Equal(t, models.GapSeverityHigh, severityFromDelta(49.9))
	assert.Equal(t, models.GapSeverityMedium, severityFromDelta(15))
	assert.Equal(t, models.GapSeverityLow, severityFromDelta(14.9))
	assert.Equal(t, models.GapSeverityLow, severityFromDelta(0.1))
}
