package services

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/models"
	"complyguard-lab/pkg/logger"
)

// Penalty tier text for late supervisory reports. Regulatory reference
// only, never a computed amount.
const supervisoryPenaltyTier = "Art. 83(4): administrative fine up to EUR 10M or 2% of total worldwide annual turnover"

// Data-sensitivity contributions to the breach risk score. Multiple
// types do not stack, the highest one counts.
var sensitivityWeights = map[string]float64{
	"health":      20,
	"biometric":   20,
	"genetic":     20,
	"financial":   15,
	"credentials": 15,
	"identity":    12,
	"location":    10,
	"contact":     5,
	"technical":   5,
}

const unknownSensitivityWeight = 8

// NotificationEngine assesses breach incidents against notification
// obligations: whether to notify, whom, and by when. Deadlines anchor on
// detection time and are never blocked by jurisdiction lookup failures.
type NotificationEngine struct {
	config config.NotificationConfig
	logger *logger.Logger
}

// NewNotificationEngine creates a new NotificationEngine
func NewNotificationEngine(cfg config.NotificationConfig, log *logger.Logger) *NotificationEngine {
	if cfg.SupervisoryDeadline == 0 {
		cfg.SupervisoryDeadline = DefaultSupervisoryDeadline
	}
	if cfg.DataSubjectDeadline == 0 {
		cfg.DataSubjectDeadline = DefaultDataSubjectDeadline
	}
	if len(cfg.Jurisdictions) == 0 {
		cfg.Jurisdictions = config.DefaultNotificationConfig().Jurisdictions
	}
	return &NotificationEngine{
		config: cfg,
		logger: log.WithComponent("notification"),
	}
}

// Default deadlines when the config leaves them unset
const (
	DefaultSupervisoryDeadline = 72 * time.Hour
	DefaultDataSubjectDeadline = 7 * 24 * time.Hour
)

// AssessRisk scores the breach context deterministically:
//
//	cvss*4 (max 40) + highest data sensitivity + subject-count tier
//	+ 20 if actively exploited
//
// Buckets: >=70 HIGH, >=40 MEDIUM, else LOW.
func (e *NotificationEngine) AssessRisk(ctx models.IncidentContext) models.RiskAssessment {
	r := models.RiskAssessment{
		CVSSContribution: clamp(ctx.CVSS*4, 0, 40),
	}

	for _, dt := range ctx.DataTypes {
		w, ok := sensitivityWeights[strings.ToLower(dt)]
		if !ok {
			w = unknownSensitivityWeight
		}
		if w > r.SensitivityContribution {
			r.SensitivityContribution = w
		}
	}

	switch {
	case ctx.UserCount >= 100000:
		r.SubjectContribution = 20
	case ctx.UserCount >= 10000:
		r.SubjectContribution = 15
	case ctx.UserCount >= 1000:
		r.SubjectContribution = 10
	case ctx.UserCount >= 1:
		r.SubjectContribution = 5
	}

	if ctx.Exploited {
		r.ExploitContribution = 20
	}

	r.Score = r.CVSSContribution + r.SensitivityContribution + r.SubjectContribution + r.ExploitContribution
	switch {
	case r.Score >= 70:
		r.Bucket = models.RiskBucketHigh
	case r.Score >= 40:
		r.Bucket = models.RiskBucketMedium
	default:
		r.Bucket = models.RiskBucketLow
	}

	return r
}

// AssessBreach builds a fully assessed incident from the detection input.
// Supervisory notification is required whenever personal data is involved;
// data-subject notification additionally requires a HIGH risk bucket.
// Authority resolution failures are recorded on the assessment but never
// delay the deadlines.
func (e *NotificationEngine) AssessBreach(detectedAt time.Time, nature models.BreachNature, ctx models.IncidentContext) *models.BreachIncident {
	risk := e.AssessRisk(ctx)
	personalData := ctx.PersonalDataInvolved()

	assessment := models.NotificationAssessment{
		SupervisoryRequired:  personalData,
		DataSubjectsRequired: personalData && risk.Bucket == models.RiskBucketHigh,
		SupervisoryDeadline:  detectedAt.Add(e.config.SupervisoryDeadline),
		DataSubjectDeadline:  detectedAt.Add(e.config.DataSubjectDeadline),
	}

	if assessment.SupervisoryRequired {
		authority, err := e.ResolveAuthority(ctx.Jurisdiction)
		if err != nil {
			assessment.AuthorityError = err.Error()
			e.logger.Warn().
				Str("jurisdiction", ctx.Jurisdiction).
				Msg("authority resolution failed, deadlines unaffected")
		} else {
			assessment.Authority = authority
		}
	}

	status := models.IncidentNotificationNotRequired
	if assessment.SupervisoryRequired {
		status = models.IncidentNotificationRequired
	}

	incident := &models.BreachIncident{
		ID:           uuid.New(),
		DetectedAt:   detectedAt,
		Nature:       nature,
		Context:      ctx,
		Risk:         risk,
		Notification: assessment,
		Status:       status,
		Actions:      defaultResponseActions(nature, assessment),
		CreatedAt:    time.Now(),
	}

	e.logger.Info().
		Str("incident_id", incident.ID.String()).
		Str("bucket", string(risk.Bucket)).
		Bool("supervisory_required", assessment.SupervisoryRequired).
		Bool("data_subjects_required", assessment.DataSubjectsRequired).
		Msg("breach assessed")

	return incident
}

// ResolveAuthority looks up the supervisory authority for a jurisdiction
// code. Unknown codes return UnknownJurisdictionError; callers must not
// treat that as blocking the notification deadlines.
func (e *NotificationEngine) ResolveAuthority(jurisdiction string) (*models.AuthorityContact, error) {
	code := strings.ToUpper(strings.TrimSpace(jurisdiction))
	if code == "" {
		code = "EU"
	}
	j, ok := e.config.Jurisdictions[code]
	if !ok {
		return nil, &models.UnknownJurisdictionError{Jurisdiction: jurisdiction}
	}
	return &models.AuthorityContact{
		Jurisdiction: code,
		Authority:    j.Authority,
		Contact:      j.Contact,
		Portal:       j.Portal,
	}, nil
}

// TrackReport records that a notification was sent on a channel and
// classifies it against the immutable deadline set at assessment time
func (e *NotificationEngine) TrackReport(incident *models.BreachIncident, channel models.NotificationChannel, reportedAt time.Time) models.NotificationReport {
	deadline := incident.Notification.SupervisoryDeadline
	required := incident.Notification.SupervisoryRequired
	if channel == models.ChannelDataSubjects {
		deadline = incident.Notification.DataSubjectDeadline
		required = incident.Notification.DataSubjectsRequired
	}

	report := models.NotificationReport{
		IncidentID: incident.ID,
		Channel:    channel,
		ReportedAt: reportedAt,
		Deadline:   deadline,
		OnTime:     !reportedAt.After(deadline),
	}
	// A voluntary report on a channel with no obligation is never a
	// violation, however late it arrives
	if !report.OnTime && required {
		report.Violation = true
		if channel == models.ChannelSupervisory {
			report.PenaltyTier = supervisoryPenaltyTier
		}
	}

	e.logger.Info().
		Str("incident_id", incident.ID.String()).
		Str("channel", string(channel)).
		Bool("on_time", report.OnTime).
		Msg("notification report tracked")

	return report
}

// defaultResponseActions builds the initial response checklist for an
// assessed breach
func defaultResponseActions(nature models.BreachNature, assessment models.NotificationAssessment) []models.ResponseAction {
	actions := []models.ResponseAction{
		{Category: models.ActionContainment, Description: "Isolate affected systems and revoke compromised access paths"},
		{Category: models.ActionInvestigation, Description: "Establish scope: affected records, data categories, and time window"},
		{Category: models.ActionInvestigation, Description: "Preserve logs and forensic artifacts for the incident record"},
		{Category: models.ActionRemediation, Description: "Patch or reconfigure the exploited weakness and verify the fix"},
	}

	if nature == models.BreachIntegrity {
		actions = append(actions, models.ResponseAction{
			Category:    models.ActionRemediation,
			Description: "Restore affected records from verified backups and reconcile changes",
		})
	}
	if assessment.SupervisoryRequired {
		actions = append(actions, models.ResponseAction{
			Category:    models.ActionCommunication,
			Description: "Notify the supervisory authority before " + assessment.SupervisoryDeadline.Format(time.RFC3339),
		})
	}
	if assessment.DataSubjectsRequired {
		actions = append(actions, models.ResponseAction{
			Category:    models.ActionCommunication,
			Description: "Inform affected data subjects before " + assessment.DataSubjectDeadline.Format(time.RFC3339),
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actionOrder(actions[i].Category) < actionOrder(actions[j].Category)
	})
	return actions
}

func actionOrder(c models.ResponseActionCategory) int {
	switch c {
	case models.ActionContainment:
		return 0
	case models.ActionInvestigation:
		return 1
	case models.ActionCommunication:
		return 2
	default:
		return 3
	}
}
