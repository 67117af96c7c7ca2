package models

import (
	"time"

	"github.com/google/uuid"
)

// TrendDirection summarizes score movement against the previous assessment
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// FrameworkScore is the weighted maturity score of one framework
type FrameworkScore struct {
	FrameworkID      string             `json:"framework_id"`
	Score            float64            `json:"score"`
	DisplayScore     float64            `json:"display_score"`
	DomainScores     map[string]float64 `json:"domain_scores"`
	ControlsAssessed int                `json:"controls_assessed"`
	ControlsTotal    int                `json:"controls_total"`
}

// TrustFactors are the sub-factor values (0-100) feeding the trust score
type TrustFactors struct {
	ControlEffectiveness float64 `json:"control_effectiveness"`
	EvidenceQuality      float64 `json:"evidence_quality"`
	CoverageDepth        float64 `json:"coverage_depth"`
	Trend                float64 `json:"trend"`
}

// OverallScore aggregates framework scores and the multi-factor trust score
type OverallScore struct {
	Score             float64        `json:"score"`
	DisplayScore      float64        `json:"display_score"`
	TrustScore        float64        `json:"trust_score"`
	DisplayTrustScore float64        `json:"display_trust_score"`
	Factors           TrustFactors   `json:"factors"`
	TrendDirection    TrendDirection `json:"trend_direction"`
}

// AssessmentResult is the immutable outcome of one assessment session.
// A new assessment produces a new result; prior results are never mutated.
type AssessmentResult struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	SessionID       string           `json:"session_id" db:"session_id"`
	FrameworkScores []FrameworkScore `json:"framework_scores"`
	Overall         OverallScore     `json:"overall"`
	Gaps            []ComplianceGap  `json:"gaps"`
	Recommendations []Recommendation `json:"recommendations"`
	Roadmap         []RoadmapPhase   `json:"roadmap"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}

// AssessmentRequest is the input of an assessment session
type AssessmentRequest struct {
	SessionID    string                     `json:"session_id"`
	FrameworkIDs []string                   `json:"framework_ids"`
	Statuses     map[string][]ControlStatus `json:"statuses"`
}

// AssessmentStats is an aggregate view used by the stats endpoint
type AssessmentStats struct {
	TotalAssessments int64            `json:"total_assessments"`
	GapsBySeverity   map[string]int64 `json:"gaps_by_severity"`
	OpenGaps         int64            `json:"open_gaps"`
	LatestScore      float64          `json:"latest_score"`
	LastAssessment   *time.Time       `json:"last_assessment,omitempty"`
}
