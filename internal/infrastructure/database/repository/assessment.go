package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/infrastructure/database"
)

// AssessmentRepository handles assessment result persistence. Results are
// immutable: inserts only, no updates.
type AssessmentRepository struct {
	db *database.PostgresDB
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *database.PostgresDB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// SaveAssessment inserts an assessment result and its gaps in one transaction
func (r *AssessmentRepository) SaveAssessment(ctx context.Context, result *models.AssessmentResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO assessment_results (
				id, session_id, overall_score, trust_score, trend_direction,
				payload, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`

		_, err := tx.Exec(ctx, query,
			result.ID, result.SessionID, result.Overall.Score, result.Overall.TrustScore,
			result.Overall.TrendDirection, payload, result.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert assessment: %w", err)
		}

		gapQuery := `
			INSERT INTO compliance_gaps (
				id, assessment_id, framework_id, control_id, severity, gap_type,
				description, impact, remediation, owner, target_date, status, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO NOTHING`

		for _, g := range result.Gaps {
			_, err = tx.Exec(ctx, gapQuery,
				g.ID, g.AssessmentID, g.FrameworkID, g.ControlID, g.Severity, g.Type,
				g.Description, g.Impact, g.Remediation, g.Owner, g.TargetDate, g.Status, g.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert gap %s: %w", g.ID, err)
			}
		}

		return nil
	})
}

// LatestAssessment returns the most recent result for a session, nil when
// no history exists
func (r *AssessmentRepository) LatestAssessment(ctx context.Context, sessionID string) (*models.AssessmentResult, error) {
	query := `
		SELECT payload
		FROM assessment_results
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var payload []byte
	err := r.db.Pool().QueryRow(ctx, query, sessionID).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest assessment: %w", err)
	}

	var result models.AssessmentResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment: %w", err)
	}
	return &result, nil
}

// GetByID retrieves an assessment result by its id
func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (*models.AssessmentResult, error) {
	query := `SELECT payload FROM assessment_results WHERE id = $1`

	var payload []byte
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}

	var result models.AssessmentResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment: %w", err)
	}
	return &result, nil
}

// ListSessions returns recent assessment summaries across sessions
func (r *AssessmentRepository) ListSessions(ctx context.Context, limit, offset int) ([]*AssessmentSummary, int64, error) {
	var total int64
	if err := r.db.Pool().QueryRow(ctx, "SELECT COUNT(*) FROM assessment_results").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT id, session_id, overall_score, trust_score, trend_direction, created_at
		FROM assessment_results
		ORDER BY created_at DESC
		LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var summaries []*AssessmentSummary
	for rows.Next() {
		s := &AssessmentSummary{}
		if err := rows.Scan(&s.ID, &s.SessionID, &s.OverallScore, &s.TrustScore, &s.TrendDirection, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan assessment row: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, total, nil
}

// GetStats returns aggregate assessment statistics
func (r *AssessmentRepository) GetStats(ctx context.Context) (*models.AssessmentStats, error) {
	stats := &models.AssessmentStats{
		GapsBySeverity: make(map[string]int64),
	}

	var lastAssessment *time.Time
	var latestScore *float64
	err := r.db.Pool().QueryRow(ctx, `
		SELECT
			COUNT(*),
			MAX(created_at),
			(SELECT overall_score FROM assessment_results ORDER BY created_at DESC LIMIT 1)
		FROM assessment_results
	`).Scan(&stats.TotalAssessments, &lastAssessment, &latestScore)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment stats: %w", err)
	}
	stats.LastAssessment = lastAssessment
	if latestScore != nil {
		stats.LatestScore = *latestScore
	}

	rows, err := r.db.Pool().Query(ctx, `
		SELECT severity, COUNT(*)
		FROM compliance_gaps
		WHERE status != 'resolved'
		GROUP BY severity
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get gap stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var severity string
		var count int64
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan gap stats: %w", err)
		}
		stats.GapsBySeverity[severity] = count
		stats.OpenGaps += count
	}

	return stats, nil
}

// AssessmentSummary is the list-view projection of a stored result
type AssessmentSummary struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	OverallScore   float64   `json:"overall_score"`
	TrustScore     float64   `json:"trust_score"`
	TrendDirection string    `json:"trend_direction"`
	CreatedAt      time.Time `json:"created_at"`
}
