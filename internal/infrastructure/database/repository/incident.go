package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/infrastructure/database"
)

// IncidentRepository handles breach incident persistence. The context,
// risk, and notification blocks are stored as JSONB documents; report
// tracking is recorded append-only in incident_events.
type IncidentRepository struct {
	db *database.PostgresDB
}

// NewIncidentRepository creates a new incident repository
func NewIncidentRepository(db *database.PostgresDB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Create inserts an assessed breach incident
func (r *IncidentRepository) Create(ctx context.Context, incident *models.BreachIncident) error {
	contextJSON, err := json.Marshal(incident.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal incident context: %w", err)
	}
	riskJSON, err := json.Marshal(incident.Risk)
	if err != nil {
		return fmt.Errorf("failed to marshal risk assessment: %w", err)
	}
	notificationJSON, err := json.Marshal(incident.Notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification assessment: %w", err)
	}
	actionsJSON, err := json.Marshal(incident.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal response actions: %w", err)
	}

	query := `
		INSERT INTO breach_incidents (
			id, detected_at, nature, context, risk, notification,
			supervisory_required, supervisory_deadline, status, actions, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Pool().Exec(ctx, query,
		incident.ID, incident.DetectedAt, incident.Nature,
		contextJSON, riskJSON, notificationJSON,
		incident.Notification.SupervisoryRequired, incident.Notification.SupervisoryDeadline,
		incident.Status, actionsJSON, incident.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}

	return nil
}

// GetByID retrieves an incident by its id
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BreachIncident, error) {
	query := `
		SELECT id, detected_at, nature, context, risk, notification, status, actions, created_at
		FROM breach_incidents
		WHERE id = $1`

	return r.scanIncident(r.db.Pool().QueryRow(ctx, query, id))
}

// List retrieves incidents, newest first
func (r *IncidentRepository) List(ctx context.Context, status models.IncidentStatus, limit, offset int) ([]*models.BreachIncident, int64, error) {
	where := ""
	args := []any{}
	if status != "" {
		where = " WHERE status = $1"
		args = append(args, status)
	}

	var total int64
	if err := r.db.Pool().QueryRow(ctx, "SELECT COUNT(*) FROM breach_incidents"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count incidents: %w", err)
	}

	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, detected_at, nature, context, risk, notification, status, actions, created_at
		FROM breach_incidents` + where + " ORDER BY detected_at DESC"
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*models.BreachIncident
	for rows.Next() {
		inc, err := r.scanIncidentFromRows(rows)
		if err != nil {
			return nil, 0, err
		}
		incidents = append(incidents, inc)
	}

	return incidents, total, nil
}

// RecordReport appends a notification report event and moves the incident
// status to the tracked outcome
func (r *IncidentRepository) RecordReport(ctx context.Context, incident *models.BreachIncident, report *models.NotificationReport) error {
	toStatus := models.IncidentTrackedOnTime
	if report.Violation {
		toStatus = models.IncidentTrackedLate
	}

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE breach_incidents SET status = $2 WHERE id = $1`, incident.ID, toStatus); err != nil {
			return fmt.Errorf("failed to update incident status: %w", err)
		}

		event := models.IncidentEvent{
			ID:         uuid.New(),
			IncidentID: incident.ID,
			FromStatus: incident.Status,
			ToStatus:   toStatus,
			Channel:    report.Channel,
			ReportedAt: &report.ReportedAt,
			Note:       report.PenaltyTier,
			CreatedAt:  time.Now().UTC(),
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO incident_events (id, incident_id, from_status, to_status, channel, reported_at, note, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			event.ID, event.IncidentID, event.FromStatus, event.ToStatus,
			event.Channel, event.ReportedAt, event.Note, event.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert incident event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	incident.Status = toStatus
	return nil
}

// ListEvents returns the event history of an incident, oldest first
func (r *IncidentRepository) ListEvents(ctx context.Context, incidentID uuid.UUID) ([]*models.IncidentEvent, error) {
	query := `
		SELECT id, incident_id, from_status, to_status, channel, reported_at, note, created_at
		FROM incident_events
		WHERE incident_id = $1
		ORDER BY created_at`

	rows, err := r.db.Pool().Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incident events: %w", err)
	}
	defer rows.Close()

	var events []*models.IncidentEvent
	for rows.Next() {
		e := &models.IncidentEvent{}
		var channel *string
		if err := rows.Scan(&e.ID, &e.IncidentID, &e.FromStatus, &e.ToStatus, &channel, &e.ReportedAt, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan incident event: %w", err)
		}
		if channel != nil {
			e.Channel = models.NotificationChannel(*channel)
		}
		events = append(events, e)
	}

	return events, nil
}

// ListOverdueIncidents returns incidents whose supervisory deadline passed
// while still awaiting a report
func (r *IncidentRepository) ListOverdueIncidents(ctx context.Context, asOf time.Time) ([]*models.BreachIncident, error) {
	query := `
		SELECT id, detected_at, nature, context, risk, notification, status, actions, created_at
		FROM breach_incidents
		WHERE supervisory_required
		  AND supervisory_deadline < $1
		  AND status = $2
		ORDER BY supervisory_deadline`

	rows, err := r.db.Pool().Query(ctx, query, asOf, models.IncidentNotificationRequired)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*models.BreachIncident
	for rows.Next() {
		inc, err := r.scanIncidentFromRows(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}

	return incidents, nil
}

// Helper functions

func (r *IncidentRepository) scanIncident(row pgx.Row) (*models.BreachIncident, error) {
	inc := &models.BreachIncident{}
	var contextJSON, riskJSON, notificationJSON, actionsJSON []byte

	err := row.Scan(
		&inc.ID, &inc.DetectedAt, &inc.Nature,
		&contextJSON, &riskJSON, &notificationJSON,
		&inc.Status, &actionsJSON, &inc.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}

	return decodeIncident(inc, contextJSON, riskJSON, notificationJSON, actionsJSON)
}

func (r *IncidentRepository) scanIncidentFromRows(rows pgx.Rows) (*models.BreachIncident, error) {
	inc := &models.BreachIncident{}
	var contextJSON, riskJSON, notificationJSON, actionsJSON []byte

	err := rows.Scan(
		&inc.ID, &inc.DetectedAt, &inc.Nature,
		&contextJSON, &riskJSON, &notificationJSON,
		&inc.Status, &actionsJSON, &inc.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan incident row: %w", err)
	}

	return decodeIncident(inc, contextJSON, riskJSON, notificationJSON, actionsJSON)
}

func decodeIncident(inc *models.BreachIncident, contextJSON, riskJSON, notificationJSON, actionsJSON []byte) (*models.BreachIncident, error) {
	if err := json.Unmarshal(contextJSON, &inc.Context); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident context: %w", err)
	}
	if err := json.Unmarshal(riskJSON, &inc.Risk); err != nil {
		return nil, fmt.Errorf("failed to unmarshal risk assessment: %w", err)
	}
	if err := json.Unmarshal(notificationJSON, &inc.Notification); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification assessment: %w", err)
	}
	if len(actionsJSON) > 0 {
		if err := json.Unmarshal(actionsJSON, &inc.Actions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response actions: %w", err)
		}
	}
	return inc, nil
}
