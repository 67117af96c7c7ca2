package streaming

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complyguard-lab/internal/domain/models"
)

func TestSubscriptionMatchesSeverity(t *testing.T) {
	sub := &Subscription{MinSeverity: models.GapSeverityHigh}

	high := &ComplianceEvent{Type: EventTypeGapDetected, Severity: models.GapSeverityCritical}
	low := &ComplianceEvent{Type: EventTypeGapDetected, Severity: models.GapSeverityLow}
	noSeverity := &ComplianceEvent{Type: EventTypeAssessmentCompleted}

	assert.True(t, sub.Matches(high))
	assert.False(t, sub.Matches(low))
	assert.True(t, sub.Matches(noSeverity), "severity filter only applies to gap events")
}

func TestSubscriptionMatchesTypes(t *testing.T) {
	sub := &Subscription{Types: []EventType{EventTypeBreachAssessed, EventTypeBreachReported}}

	assert.True(t, sub.Matches(&ComplianceEvent{Type: EventTypeBreachAssessed}))
	assert.False(t, sub.Matches(&ComplianceEvent{Type: EventTypeGapDetected}))
}

func TestSubscriptionMatchesFrameworks(t *testing.T) {
	sub := &Subscription{FrameworkIDs: []string{"gdpr"}}

	assert.True(t, sub.Matches(&ComplianceEvent{Type: EventTypeGapDetected, FrameworkID: "gdpr"}))
	assert.False(t, sub.Matches(&ComplianceEvent{Type: EventTypeGapDetected, FrameworkID: "sox"}))
	assert.True(t, sub.Matches(&ComplianceEvent{Type: EventTypeBreachAssessed}), "framework filter ignores non-framework events")
}

func TestSubscriptionHighRiskOnly(t *testing.T) {
	sub := &Subscription{HighRiskOnly: true}

	assert.True(t, sub.Matches(&ComplianceEvent{Type: EventTypeBreachAssessed, RiskBucket: models.RiskBucketHigh}))
	assert.False(t, sub.Matches(&ComplianceEvent{Type: EventTypeBreachAssessed, RiskBucket: models.RiskBucketLow}))
	assert.True(t, sub.Matches(&ComplianceEvent{Type: EventTypeGapDetected}), "non-incident events pass through")
}

func TestSubscriptionEmptyMatchesEverything(t *testing.T) {
	sub := &Subscription{}
	assert.True(t, sub.Matches(&ComplianceEvent{Type: EventTypeDeadlineOverdue}))
}

func TestNewAssessmentEvent(t *testing.T) {
	result := &models.AssessmentResult{
		ID:        uuid.New(),
		SessionID: "session-1",
		Overall: models.OverallScore{
			DisplayScore:      87.5,
			DisplayTrustScore: 82.1,
			TrendDirection:    models.TrendImproving,
		},
		Gaps: []models.ComplianceGap{{}, {}},
	}

	event := NewAssessmentEvent(result)
	assert.Equal(t, EventTypeAssessmentCompleted, event.Type)
	assert.Equal(t, "session-1", event.SessionID)
	assert.Equal(t, result.ID.String(), event.AssessmentID)
	assert.Equal(t, 87.5, event.OverallScore)
	assert.Equal(t, 2, event.Metadata["gap_count"])
}

func TestNewIncidentEventCarriesDeadline(t *testing.T) {
	deadline := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	incident := &models.BreachIncident{
		ID:   uuid.New(),
		Risk: models.RiskAssessment{Bucket: models.RiskBucketHigh},
		Notification: models.NotificationAssessment{
			SupervisoryRequired: true,
			SupervisoryDeadline: deadline,
		},
	}

	event := NewIncidentEvent(EventTypeBreachAssessed, incident)
	assert.Equal(t, incident.ID.String(), event.IncidentID)
	assert.Equal(t, models.RiskBucketHigh, event.RiskBucket)
	require.NotNil(t, event.Deadline)
	assert.Equal(t, deadline, *event.Deadline)

	// No supervisory obligation, no deadline on the event
	incident.Notification.SupervisoryRequired = false
	event = NewIncidentEvent(EventTypeBreachAssessed, incident)
	assert.Nil(t, event.Deadline)
}
