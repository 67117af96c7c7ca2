package streaming

import (
	"time"

	"github.com/google/uuid"

	"complyguard-lab/internal/domain/models"
)

// EventType represents the type of compliance event
type EventType string

const (
	EventTypeAssessmentCompleted EventType = "assessment_completed"
	EventTypeGapDetected         EventType = "gap_detected"
	EventTypeBreachAssessed      EventType = "breach_assessed"
	EventTypeBreachReported      EventType = "breach_reported"
	EventTypeDeadlineOverdue     EventType = "deadline_overdue"
)

// ComplianceEvent represents a real-time compliance update event
type ComplianceEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Assessment details
	SessionID    string  `json:"session_id,omitempty"`
	AssessmentID string  `json:"assessment_id,omitempty"`
	OverallScore float64 `json:"overall_score,omitempty"`
	TrustScore   float64 `json:"trust_score,omitempty"`

	// Gap details
	FrameworkID string             `json:"framework_id,omitempty"`
	ControlID   string             `json:"control_id,omitempty"`
	GapID       string             `json:"gap_id,omitempty"`
	Severity    models.GapSeverity `json:"severity,omitempty"`

	// Incident details
	IncidentID string            `json:"incident_id,omitempty"`
	RiskBucket models.RiskBucket `json:"risk_bucket,omitempty"`
	Channel    string            `json:"channel,omitempty"`
	Deadline   *time.Time        `json:"deadline,omitempty"`
	OnTime     *bool             `json:"on_time,omitempty"`

	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewAssessmentEvent builds the completion event for an assessment result
func NewAssessmentEvent(result *models.AssessmentResult) *ComplianceEvent {
	return &ComplianceEvent{
		ID:           uuid.New().String(),
		Type:         EventTypeAssessmentCompleted,
		Timestamp:    time.Now(),
		SessionID:    result.SessionID,
		AssessmentID: result.ID.String(),
		OverallScore: result.Overall.DisplayScore,
		TrustScore:   result.Overall.DisplayTrustScore,
		Metadata: map[string]any{
			"gap_count":       len(result.Gaps),
			"trend_direction": result.Overall.TrendDirection,
		},
	}
}

// NewGapEvent builds the detection event for a compliance gap
func NewGapEvent(gap *models.ComplianceGap) *ComplianceEvent {
	return &ComplianceEvent{
		ID:          uuid.New().String(),
		Type:        EventTypeGapDetected,
		Timestamp:   time.Now(),
		FrameworkID: gap.FrameworkID,
		ControlID:   gap.ControlID,
		GapID:       gap.ID.String(),
		Severity:    gap.Severity,
		Description: gap.Description,
	}
}

// NewIncidentEvent builds a breach lifecycle event
func NewIncidentEvent(eventType EventType, incident *models.BreachIncident) *ComplianceEvent {
	event := &ComplianceEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now(),
		IncidentID:  incident.ID.String(),
		RiskBucket:  incident.Risk.Bucket,
		Description: incident.Context.Description,
	}
	if incident.Notification.SupervisoryRequired {
		deadline := incident.Notification.SupervisoryDeadline
		event.Deadline = &deadline
	}
	return event
}

// Subscription represents a client's subscription preferences
type Subscription struct {
	// Filter by gap severity (empty = all)
	MinSeverity models.GapSeverity `json:"min_severity,omitempty"`

	// Filter by event types (empty = all)
	Types []EventType `json:"types,omitempty"`

	// Filter by frameworks (empty = all)
	FrameworkIDs []string `json:"framework_ids,omitempty"`

	// Include only HIGH risk bucket incidents
	HighRiskOnly bool `json:"high_risk_only,omitempty"`
}

// Matches checks if an event matches the subscription filters
func (s *Subscription) Matches(event *ComplianceEvent) bool {
	// Check severity (only meaningful for gap events)
	if s.MinSeverity != "" && event.Severity != "" {
		if event.Severity.Rank() < s.MinSeverity.Rank() {
			return false
		}
	}

	// Check event types
	if len(s.Types) > 0 {
		found := false
		for _, t := range s.Types {
			if t == event.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// Check frameworks
	if len(s.FrameworkIDs) > 0 && event.FrameworkID != "" {
		found := false
		for _, id := range s.FrameworkIDs {
			if id == event.FrameworkID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// Check high-risk-only for incident events
	if s.HighRiskOnly && event.RiskBucket != "" && event.RiskBucket != models.RiskBucketHigh {
		return false
	}

	return true
}
