package models

import (
	"time"

	"github.com/google/uuid"
)

// BreachNature classifies what security property the breach compromised
type BreachNature string

const (
	BreachConfidentiality BreachNature = "confidentiality"
	BreachIntegrity       BreachNature = "integrity"
	BreachAvailability    BreachNature = "availability"
)

// RiskBucket is the coarse risk classification driving notification rules
type RiskBucket string

const (
	RiskBucketLow    RiskBucket = "LOW"
	RiskBucketMedium RiskBucket = "MEDIUM"
	RiskBucketHigh   RiskBucket = "HIGH"
)

// IncidentStatus is the notification state machine position of an incident.
// Detected -> Assessed -> Notification(Not)Required -> Reported -> Tracked.
type IncidentStatus string

const (
	IncidentDetected                IncidentStatus = "detected"
	IncidentAssessed                IncidentStatus = "assessed"
	IncidentNotificationRequired    IncidentStatus = "notification_required"
	IncidentNotificationNotRequired IncidentStatus = "notification_not_required"
	IncidentReported                IncidentStatus = "reported"
	IncidentTrackedOnTime           IncidentStatus = "tracked_on_time"
	IncidentTrackedLate             IncidentStatus = "tracked_late"
)

// NotificationChannel identifies who a breach report was sent to
type NotificationChannel string

const (
	ChannelSupervisory  NotificationChannel = "supervisory_authority"
	ChannelDataSubjects NotificationChannel = "data_subjects"
)

// IncidentContext is the raw vulnerability/context data supplied at
// detection time by the incident-detection side
type IncidentContext struct {
	Description  string   `json:"description"`
	CVSS         float64  `json:"cvss"`
	DataTypes    []string `json:"data_types"`
	UserCount    int      `json:"user_count"`
	Exploited    bool     `json:"exploited"`
	Jurisdiction string   `json:"jurisdiction,omitempty"`
}

// PersonalDataInvolved reports whether the incident touches personal data
func (c IncidentContext) PersonalDataInvolved() bool {
	return len(c.DataTypes) > 0
}

// RiskAssessment is the deterministic risk scoring breakdown
type RiskAssessment struct {
	Score                   float64    `json:"score"`
	Bucket                  RiskBucket `json:"bucket"`
	CVSSContribution        float64    `json:"cvss_contribution"`
	SensitivityContribution float64    `json:"sensitivity_contribution"`
	SubjectContribution     float64    `json:"subject_contribution"`
	ExploitContribution     float64    `json:"exploit_contribution"`
}

// AuthorityContact is a resolved supervisory authority
type AuthorityContact struct {
	Jurisdiction string `json:"jurisdiction"`
	Authority    string `json:"authority"`
	Contact      string `json:"contact"`
	Portal       string `json:"portal,omitempty"`
}

// NotificationAssessment holds the notification decision and deadlines.
// Set once at assessment time and never changed afterwards.
type NotificationAssessment struct {
	SupervisoryRequired  bool              `json:"supervisory_required"`
	DataSubjectsRequired bool              `json:"data_subjects_required"`
	SupervisoryDeadline  time.Time         `json:"supervisory_deadline"`
	DataSubjectDeadline  time.Time         `json:"data_subject_deadline"`
	Authority            *AuthorityContact `json:"authority,omitempty"`
	AuthorityError       string            `json:"authority_error,omitempty"`
}

// ResponseActionCategory groups incident response actions
type ResponseActionCategory string

const (
	ActionContainment   ResponseActionCategory = "containment"
	ActionInvestigation ResponseActionCategory = "investigation"
	ActionCommunication ResponseActionCategory = "communication"
	ActionRemediation   ResponseActionCategory = "remediation"
)

// ResponseAction is a single incident response task with its own status
type ResponseAction struct {
	Category    ResponseActionCategory `json:"category"`
	Description string                 `json:"description"`
	Done        bool                   `json:"done"`
}

// BreachIncident is a detected personal-data breach with its notification
// assessment. Notification fields are immutable after creation; report
// tracking is recorded as append-only IncidentEvents.
type BreachIncident struct {
	ID           uuid.UUID              `json:"id" db:"id"`
	DetectedAt   time.Time              `json:"detected_at" db:"detected_at"`
	Nature       BreachNature           `json:"nature" db:"nature"`
	Context      IncidentContext        `json:"context"`
	Risk         RiskAssessment         `json:"risk"`
	Notification NotificationAssessment `json:"notification"`
	Status       IncidentStatus         `json:"status" db:"status"`
	Actions      []ResponseAction       `json:"actions,omitempty"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}

// IncidentEvent is an append-only record of a status transition or a
// notification report
type IncidentEvent struct {
	ID         uuid.UUID           `json:"id" db:"id"`
	IncidentID uuid.UUID           `json:"incident_id" db:"incident_id"`
	FromStatus IncidentStatus      `json:"from_status" db:"from_status"`
	ToStatus   IncidentStatus      `json:"to_status" db:"to_status"`
	Channel    NotificationChannel `json:"channel,omitempty" db:"channel"`
	ReportedAt *time.Time          `json:"reported_at,omitempty" db:"reported_at"`
	Note       string              `json:"note,omitempty" db:"note"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
}

// NotificationReport is the outcome of tracking one report against its
// deadline
type NotificationReport struct {
	IncidentID uuid.UUID           `json:"incident_id"`
	Channel    NotificationChannel `json:"channel"`
	ReportedAt time.Time           `json:"reported_at"`
	Deadline   time.Time           `json:"deadline"`
	OnTime     bool                `json:"on_time"`
	Violation  bool                `json:"violation"`
	// PenaltyTier is regulatory text only, never a computed amount
	PenaltyTier string `json:"penalty_tier,omitempty"`
}
