package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/infrastructure/database"
)

// GapRepository handles compliance gap lifecycle persistence. Status
// transitions are recorded append-only in gap_events.
type GapRepository struct {
	db *database.PostgresDB
}

// NewGapRepository creates a new gap repository
func NewGapRepository(db *database.PostgresDB) *GapRepository {
	return &GapRepository{db: db}
}

// GapFilter narrows gap listings
type GapFilter struct {
	FrameworkID string
	Severity    models.GapSeverity
	Status      models.GapStatus
	Limit       int
	Offset      int
}

// GetByID retrieves a gap by its id
func (r *GapRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceGap, error) {
	query := `
		SELECT id, assessment_id, framework_id, control_id, severity, gap_type,
			   description, impact, remediation, owner, target_date, status, created_at
		FROM compliance_gaps
		WHERE id = $1`

	return r.scanGap(r.db.Pool().QueryRow(ctx, query, id))
}

// List retrieves gaps with optional filtering, ordered by severity and
// target date
func (r *GapRepository) List(ctx context.Context, filter GapFilter) ([]*models.ComplianceGap, int64, error) {
	where := " WHERE 1=1"
	args := []any{}
	argn := 0

	if filter.FrameworkID != "" {
		argn++
		where += fmt.Sprintf(" AND framework_id = $%d", argn)
		args = append(args, filter.FrameworkID)
	}
	if filter.Severity != "" {
		argn++
		where += fmt.Sprintf(" AND severity = $%d", argn)
		args = append(args, filter.Severity)
	}
	if filter.Status != "" {
		argn++
		where += fmt.Sprintf(" AND status = $%d", argn)
		args = append(args, filter.Status)
	}

	var total int64
	if err := r.db.Pool().QueryRow(ctx, "SELECT COUNT(*) FROM compliance_gaps"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count gaps: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, assessment_id, framework_id, control_id, severity, gap_type,
			   description, impact, remediation, owner, target_date, status, created_at
		FROM compliance_gaps` + where + `
		ORDER BY CASE severity
			WHEN 'critical' THEN 0
			WHEN 'high' THEN 1
			WHEN 'medium' THEN 2
			ELSE 3 END,
			target_date, control_id`
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, filter.Offset)

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list gaps: %w", err)
	}
	defer rows.Close()

	var gaps []*models.ComplianceGap
	for rows.Next() {
		g, err := r.scanGapFromRows(rows)
		if err != nil {
			return nil, 0, err
		}
		gaps = append(gaps, g)
	}

	return gaps, total, nil
}

// UpdateStatus transitions a gap and appends the transition event. Invalid
// transitions (including any move out of resolved) are rejected.
func (r *GapRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to models.GapStatus, actor, note string) (*models.ComplianceGap, error) {
	found := true
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var current models.GapStatus
		err := tx.QueryRow(ctx, `SELECT status FROM compliance_gaps WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if err == pgx.ErrNoRows {
				found = false
				return nil
			}
			return fmt.Errorf("failed to load gap status: %w", err)
		}

		if !current.ValidTransition(to) {
			return &models.GapTransitionError{From: current, To: to}
		}

		if _, err := tx.Exec(ctx, `UPDATE compliance_gaps SET status = $2 WHERE id = $1`, id, to); err != nil {
			return fmt.Errorf("failed to update gap status: %w", err)
		}

		event := models.GapEvent{
			ID:         uuid.New(),
			GapID:      id,
			FromStatus: current,
			ToStatus:   to,
			Actor:      actor,
			Note:       note,
			CreatedAt:  time.Now().UTC(),
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO gap_events (id, gap_id, from_status, to_status, actor, note, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			event.ID, event.GapID, event.FromStatus, event.ToStatus, event.Actor, event.Note, event.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert gap event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// AssignOwner sets the remediation owner of a gap
func (r *GapRepository) AssignOwner(ctx context.Context, id uuid.UUID, owner string) error {
	_, err := r.db.Pool().Exec(ctx, `UPDATE compliance_gaps SET owner = $2 WHERE id = $1`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to assign gap owner: %w", err)
	}
	return nil
}

// ListEvents returns the transition history of a gap, oldest first
func (r *GapRepository) ListEvents(ctx context.Context, gapID uuid.UUID) ([]*models.GapEvent, error) {
	query := `
		SELECT id, gap_id, from_status, to_status, actor, note, created_at
		FROM gap_events
		WHERE gap_id = $1
		ORDER BY created_at`

	rows, err := r.db.Pool().Query(ctx, query, gapID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gap events: %w", err)
	}
	defer rows.Close()

	var events []*models.GapEvent
	for rows.Next() {
		e := &models.GapEvent{}
		if err := rows.Scan(&e.ID, &e.GapID, &e.FromStatus, &e.ToStatus, &e.Actor, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gap event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}

// Helper functions

func (r *GapRepository) scanGap(row pgx.Row) (*models.ComplianceGap, error) {
	g := &models.ComplianceGap{}
	err := row.Scan(
		&g.ID, &g.AssessmentID, &g.FrameworkID, &g.ControlID, &g.Severity, &g.Type,
		&g.Description, &g.Impact, &g.Remediation, &g.Owner, &g.TargetDate, &g.Status, &g.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan gap: %w", err)
	}
	return g, nil
}

func (r *GapRepository) scanGapFromRows(rows pgx.Rows) (*models.ComplianceGap, error) {
	g := &models.ComplianceGap{}
	err := rows.Scan(
		&g.ID, &g.AssessmentID, &g.FrameworkID, &g.ControlID, &g.Severity, &g.Type,
		&g.Description, &g.Impact, &g.Remediation, &g.Owner, &g.TargetDate, &g.Status, &g.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan gap row: %w", err)
	}
	return g, nil
}
