package models

import (
	"time"

	"github.com/google/uuid"
)

// GapSeverity represents the severity of a compliance gap
type GapSeverity string

const (
	GapSeverityLow      GapSeverity = "low"
	GapSeverityMedium   GapSeverity = "medium"
	GapSeverityHigh     GapSeverity = "high"
	GapSeverityCritical GapSeverity = "critical"
)

// String returns the string representation
func (s GapSeverity) String() string {
	return string(s)
}

// Rank returns a numeric rank for ordering (critical highest)
func (s GapSeverity) Rank() int {
	switch s {
	case GapSeverityCritical:
		return 4
	case GapSeverityHigh:
		return 3
	case GapSeverityMedium:
		return 2
	case GapSeverityLow:
		return 1
	default:
		return 0
	}
}

// GapType classifies what kind of shortfall a gap represents
type GapType string

const (
	GapTypeMissingControl        GapType = "missing_control"
	GapTypePartialImplementation GapType = "partial_implementation"
	GapTypeEvidenceGap           GapType = "evidence_gap"
)

// GapStatus is the lifecycle state of a gap. Resolved is terminal.
// Transitions are recorded append-only as GapEvents.
type GapStatus string

const (
	GapStatusIdentified GapStatus = "identified"
	GapStatusInProgress GapStatus = "in_progress"
	GapStatusResolved   GapStatus = "resolved"
)

// ValidTransition reports whether moving to the given status is allowed
func (s GapStatus) ValidTransition(to GapStatus) bool {
	switch s {
	case GapStatusIdentified:
		return to == GapStatusInProgress || to == GapStatusResolved
	case GapStatusInProgress:
		return to == GapStatusResolved
	default:
		return false
	}
}

// ComplianceGap is a detected shortfall between current and target control
// maturity, or missing cross-framework evidence
type ComplianceGap struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	AssessmentID uuid.UUID   `json:"assessment_id" db:"assessment_id"`
	FrameworkID  string      `json:"framework_id" db:"framework_id"`
	ControlID    string      `json:"control_id" db:"control_id"`
	Severity     GapSeverity `json:"severity" db:"severity"`
	Type         GapType     `json:"type" db:"gap_type"`
	Description  string      `json:"description" db:"description"`
	Impact       string      `json:"impact" db:"impact"`
	Remediation  string      `json:"remediation" db:"remediation"`
	Owner        string      `json:"owner,omitempty" db:"owner"`
	TargetDate   time.Time   `json:"target_date" db:"target_date"`
	Status       GapStatus   `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// GapEvent is an append-only status transition record for a gap
type GapEvent struct {
	ID         uuid.UUID `json:"id" db:"id"`
	GapID      uuid.UUID `json:"gap_id" db:"gap_id"`
	FromStatus GapStatus `json:"from_status" db:"from_status"`
	ToStatus   GapStatus `json:"to_status" db:"to_status"`
	Actor      string    `json:"actor,omitempty" db:"actor"`
	Note       string    `json:"note,omitempty" db:"note"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Recommendation is a rule-derived remediation suggestion
type Recommendation struct {
	Priority    GapSeverity `json:"priority"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ControlIDs  []string    `json:"control_ids,omitempty"`
}

// RoadmapPhase groups remediation actions into a time horizon
type RoadmapPhase struct {
	Name     string   `json:"name"`
	Horizon  string   `json:"horizon"`
	Actions  []string `json:"actions"`
	GapCount int      `json:"gap_count"`
}
