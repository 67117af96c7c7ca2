package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/models"
	"complyguard-lab/pkg/logger"
)

// AssessmentStore persists assessment results and serves history lookups
type AssessmentStore interface {
	SaveAssessment(ctx context.Context, result *models.AssessmentResult) error
	LatestAssessment(ctx context.Context, sessionID string) (*models.AssessmentResult, error)
}

// ResultCache is the slice of the cache used by the assessment engine
type ResultCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher fans assessment and incident events out to subscribers
type EventPublisher interface {
	PublishAssessmentCompleted(ctx context.Context, result *models.AssessmentResult) error
	PublishGapDetected(ctx context.Context, gap *models.ComplianceGap) error
	PublishBreachAssessed(ctx context.Context, incident *models.BreachIncident) error
	PublishBreachReported(ctx context.Context, incident *models.BreachIncident, report *models.NotificationReport) error
	PublishDeadlineOverdue(ctx context.Context, incident *models.BreachIncident) error
}

const assessmentCacheKeyPrefix = "cache:assessment:"

// AssessmentEngine runs full assessment sessions: cross-framework
// mappings, per-framework scoring, gap analysis, and the remediation
// roadmap. Results are immutable; each run creates a new record.
type AssessmentEngine struct {
	catalog   *Catalog
	mapper    *ControlMapper
	analyzer  *GapAnalyzer
	scorer    *Scorer
	store     AssessmentStore
	cache     ResultCache
	publisher EventPublisher
	cacheTTL  time.Duration
	logger    *logger.Logger
}

// NewAssessmentEngine creates the engine. Store, cache, and publisher may
// be nil; the engine then runs compute-only.
func NewAssessmentEngine(
	catalog *Catalog,
	mapper *ControlMapper,
	analyzer *GapAnalyzer,
	scorer *Scorer,
	store AssessmentStore,
	cache ResultCache,
	publisher EventPublisher,
	cfg config.AssessmentConfig,
	log *logger.Logger,
) *AssessmentEngine {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &AssessmentEngine{
		catalog:   catalog,
		mapper:    mapper,
		analyzer:  analyzer,
		scorer:    scorer,
		store:     store,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  ttl,
		logger:    log.WithComponent("assessment"),
	}
}

// RunAssessment executes one assessment session over the requested
// frameworks (all catalog frameworks when none are named)
func (e *AssessmentEngine) RunAssessment(ctx context.Context, req *models.AssessmentRequest) (*models.AssessmentResult, error) {
	snap := e.catalog.Snapshot()
	now := time.Now().UTC()

	frameworkIDs := req.FrameworkIDs
	if len(frameworkIDs) == 0 {
		frameworkIDs = snap.Order
	}
	for _, id := range frameworkIDs {
		if _, err := snap.Framework(id); err != nil {
			return nil, err
		}
	}

	mappings, err := e.pairwiseMappings(snap, frameworkIDs)
	if err != nil {
		return nil, err
	}

	result := &models.AssessmentResult{
		ID:        uuid.New(),
		SessionID: req.SessionID,
		CreatedAt: now,
	}

	for _, id := range frameworkIDs {
		fw, _ := snap.Framework(id)
		statuses := req.Statuses[id]

		result.FrameworkScores = append(result.FrameworkScores, e.scorer.CalculateFrameworkScore(fw, statuses))

		gaps, err := e.analyzer.AnalyzeGaps(snap, id, statuses, mappings, now)
		if err != nil {
			return nil, err
		}
		for i := range gaps {
			gaps[i].AssessmentID = result.ID
		}
		result.Gaps = append(result.Gaps, gaps...)
	}
	sortGaps(result.Gaps)

	overall, err := e.scorer.CalculateOverall(result.FrameworkScores, nil)
	if err != nil {
		return nil, err
	}

	previous := e.previousOverall(ctx, req.SessionID)
	factors := e.scorer.DeriveTrustFactors(overall, result.FrameworkScores, req.Statuses, previous)
	trust := e.scorer.TrustScore(factors)

	result.Overall = models.OverallScore{
		Score:             overall,
		DisplayScore:      models.RoundScore(overall),
		TrustScore:        trust,
		DisplayTrustScore: models.RoundScore(trust),
		Factors:           factors,
		TrendDirection:    TrendDirection(overall, previous),
	}

	result.Recommendations = buildRecommendations(result.Gaps, result.FrameworkScores)
	result.Roadmap = buildRoadmap(result.Gaps)

	e.persistAndPublish(ctx, result)

	e.logger.Info().
		Str("assessment_id", result.ID.String()).
		Str("session_id", req.SessionID).
		Float64("overall", result.Overall.DisplayScore).
		Int("gaps", len(result.Gaps)).
		Msg("assessment completed")

	return result, nil
}

// MapFrameworks exposes pairwise mapping for the mappings endpoint
func (e *AssessmentEngine) MapFrameworks(sourceID, targetID string) ([]models.ControlMapping, error) {
	return e.mapper.MapControls(e.catalog.Snapshot(), sourceID, targetID)
}

// AnalyzeGaps runs a standalone gap analysis over the requested frameworks
// (all catalog frameworks when none are named) without creating an
// assessment record
func (e *AssessmentEngine) AnalyzeGaps(frameworkIDs []string, statuses map[string][]models.ControlStatus, asOf time.Time) ([]models.ComplianceGap, error) {
	snap := e.catalog.Snapshot()
	if len(frameworkIDs) == 0 {
		frameworkIDs = snap.Order
	}
	for _, id := range frameworkIDs {
		if _, err := snap.Framework(id); err != nil {
			return nil, err
		}
	}

	mappings, err := e.pairwiseMappings(snap, frameworkIDs)
	if err != nil {
		return nil, err
	}

	var all []models.ComplianceGap
	for _, id := range frameworkIDs {
		gaps, err := e.analyzer.AnalyzeGaps(snap, id, statuses[id], mappings, asOf)
		if err != nil {
			return nil, err
		}
		all = append(all, gaps...)
	}
	sortGaps(all)
	return all, nil
}

// GetAssessment resolves an assessment from cache, falling back to the store
func (e *AssessmentEngine) GetAssessment(ctx context.Context, sessionID string) (*models.AssessmentResult, error) {
	if e.cache != nil {
		var cached models.AssessmentResult
		if err := e.cache.GetJSON(ctx, assessmentCacheKeyPrefix+sessionID, &cached); err == nil {
			return &cached, nil
		}
	}
	if e.store == nil {
		return nil, nil
	}
	return e.store.LatestAssessment(ctx, sessionID)
}

// pairwiseMappings maps every ordered framework pair in the session
func (e *AssessmentEngine) pairwiseMappings(snap *CatalogSnapshot, frameworkIDs []string) ([]models.ControlMapping, error) {
	var all []models.ControlMapping
	for _, src := range frameworkIDs {
		for _, tgt := range frameworkIDs {
			if src == tgt {
				continue
			}
			mappings, err := e.mapper.MapControls(snap, src, tgt)
			if err != nil {
				return nil, fmt.Errorf("mapping %s to %s: %w", src, tgt, err)
			}
			all = append(all, mappings...)
		}
	}
	return all, nil
}

// previousOverall fetches the prior overall score for the session, nil
// when no history exists
func (e *AssessmentEngine) previousOverall(ctx context.Context, sessionID string) *float64 {
	if e.store == nil {
		return nil
	}
	prev, err := e.store.LatestAssessment(ctx, sessionID)
	if err != nil {
		e.logger.Warn().Err(err).Str("session_id", sessionID).Msg("previous assessment lookup failed")
		return nil
	}
	if prev == nil {
		return nil
	}
	score := prev.Overall.Score
	return &score
}

// persistAndPublish stores, caches, and announces a finished assessment.
// Failures here are logged, never fatal: the computed result is already
// correct and gets returned to the caller regardless.
func (e *AssessmentEngine) persistAndPublish(ctx context.Context, result *models.AssessmentResult) {
	if e.store != nil {
		if err := e.store.SaveAssessment(ctx, result); err != nil {
			e.logger.Error().Err(err).Str("assessment_id", result.ID.String()).Msg("failed to persist assessment")
		}
	}
	if e.cache != nil {
		if err := e.cache.SetJSON(ctx, assessmentCacheKeyPrefix+result.SessionID, result, e.cacheTTL); err != nil {
			e.logger.Warn().Err(err).Msg("failed to cache assessment")
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishAssessmentCompleted(ctx, result); err != nil {
			e.logger.Warn().Err(err).Msg("failed to publish assessment event")
		}
		for i := range result.Gaps {
			if result.Gaps[i].Severity.Rank() < models.GapSeverityHigh.Rank() {
				continue
			}
			if err := e.publisher.PublishGapDetected(ctx, &result.Gaps[i]); err != nil {
				e.logger.Warn().Err(err).Msg("failed to publish gap event")
				break
			}
		}
	}
}

// buildRecommendations derives remediation suggestions from the gap list
func buildRecommendations(gaps []models.ComplianceGap, scores []models.FrameworkScore) []models.Recommendation {
	byType := make(map[models.GapType][]string)
	bySeverity := make(map[models.GapSeverity][]string)
	for _, g := range gaps {
		byType[g.Type] = append(byType[g.Type], g.ControlID)
		bySeverity[g.Severity] = append(bySeverity[g.Severity], g.ControlID)
	}

	var recs []models.Recommendation
	if ids := bySeverity[models.GapSeverityCritical]; len(ids) > 0 {
		recs = append(recs, models.Recommendation{
			Priority:    models.GapSeverityCritical,
			Title:       "Remediate critical control shortfalls",
			Description: fmt.Sprintf("%d control(s) are critically below target maturity and must be remediated within 30 days", len(ids)),
			ControlIDs:  dedupe(ids),
		})
	}
	if ids := byType[models.GapTypeMissingControl]; len(ids) > 0 {
		recs = append(recs, models.Recommendation{
			Priority:    models.GapSeverityHigh,
			Title:       "Assess unassessed controls",
			Description: fmt.Sprintf("%d control(s) have no assessment on record; schedule assessments and collect baseline evidence", len(ids)),
			ControlIDs:  dedupe(ids),
		})
	}
	if ids := byType[models.GapTypeEvidenceGap]; len(ids) > 0 {
		recs = append(recs, models.Recommendation{
			Priority:    models.GapSeverityMedium,
			Title:       "Consolidate cross-framework evidence collection",
			Description: "Overlapping controls are tested separately; align evidence sets so one assessment cycle covers the mapped counterparts",
			ControlIDs:  dedupe(ids),
		})
	}

	for _, fs := range scores {
		if fs.ControlsTotal > 0 && fs.ControlsAssessed < fs.ControlsTotal {
			recs = append(recs, models.Recommendation{
				Priority: models.GapSeverityLow,
				Title:    fmt.Sprintf("Extend %s assessment coverage", fs.FrameworkID),
				Description: fmt.Sprintf("Only %d of %d controls are assessed; unassessed controls score zero and depress the framework score",
					fs.ControlsAssessed, fs.ControlsTotal),
			})
		}
	}

	return recs
}

// buildRoadmap groups gap remediations into severity-driven phases
func buildRoadmap(gaps []models.ComplianceGap) []models.RoadmapPhase {
	phases := []models.RoadmapPhase{
		{Name: "Immediate", Horizon: "0-30 days"},
		{Name: "Near term", Horizon: "30-60 days"},
		{Name: "Mid term", Horizon: "60-90 days"},
		{Name: "Long term", Horizon: "90-180 days"},
	}
	idx := map[models.GapSeverity]int{
		models.GapSeverityCritical: 0,
		models.GapSeverityHigh:     1,
		models.GapSeverityMedium:   2,
		models.GapSeverityLow:      3,
	}

	for _, g := range gaps {
		p := &phases[idx[g.Severity]]
		p.GapCount++
		p.Actions = append(p.Actions, g.Remediation)
	}

	out := phases[:0]
	for _, p := range phases {
		if p.GapCount > 0 {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
