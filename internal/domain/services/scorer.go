package services

import (
	"math"

	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/models"
	"complyguard-lab/pkg/logger"
)

// Scorer aggregates control maturity into framework and trust scores.
// All percentages are doubles in [0,100]; intermediate aggregation is
// unrounded, display values are rounded half away from zero to 1 decimal.
type Scorer struct {
	weights config.TrustWeights
	logger  *logger.Logger
}

// NewScorer creates a Scorer. The trust-factor weights must sum to 1.0
// within tolerance; otherwise construction fails fast.
func NewScorer(weights config.TrustWeights, log *logger.Logger) (*Scorer, error) {
	sum := weights.ControlEffectiveness + weights.EvidenceQuality + weights.CoverageDepth + weights.Trend
	if math.Abs(sum-1.0) > weightEpsilon {
		return nil, &models.InvalidWeightConfigurationError{Scope: "trust weights", Sum: sum}
	}
	return &Scorer{
		weights: weights,
		logger:  log.WithComponent("scorer"),
	}, nil
}

// CalculateFrameworkScore computes the weighted maturity score of one
// framework from its control statuses. Unassessed controls score zero.
func (s *Scorer) CalculateFrameworkScore(fw *models.Framework, statuses []models.ControlStatus) models.FrameworkScore {
	statusByID := make(map[string]models.ControlStatus, len(statuses))
	for _, st := range statuses {
		statusByID[st.ControlID] = st
	}

	result := models.FrameworkScore{
		FrameworkID:   fw.ID,
		DomainScores:  make(map[string]float64, len(fw.Domains)),
		ControlsTotal: fw.ControlCount(),
	}

	var score float64
	for _, d := range fw.Domains {
		domainScore := s.domainScore(&d, statusByID, &result.ControlsAssessed)
		result.DomainScores[d.ID] = models.RoundScore(domainScore)
		score += domainScore * d.Weight
	}

	result.Score = clamp(score, 0, 100)
	result.DisplayScore = models.RoundScore(result.Score)
	return result
}

// domainScore is the weighted mean of the domain's control ratios
func (s *Scorer) domainScore(d *models.Domain, statusByID map[string]models.ControlStatus, assessed *int) float64 {
	var weightedSum float64
	var totalWeight float64

	for _, ctl := range d.Controls {
		if ctl.TargetMaturity <= 0 {
			continue
		}

		weight := ctl.Weight
		if weight == 0 {
			weight = 1.0
		}

		current := 0.0
		if st, ok := statusByID[ctl.ID]; ok {
			current = st.CurrentMaturity
			*assessed++
		}

		ratio := clamp(current/ctl.TargetMaturity*100, 0, 100)
		weightedSum += ratio * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0
	}
	return clamp(weightedSum/totalWeight, 0, 100)
}

// CalculateOverall combines framework scores with per-framework weights.
// A nil weight table means equal weights; an explicit table must sum to
// 1.0 within tolerance.
func (s *Scorer) CalculateOverall(scores []models.FrameworkScore, weights map[string]float64) (float64, error) {
	if len(scores) == 0 {
		return 0, nil
	}

	if weights == nil {
		var sum float64
		for _, fs := range scores {
			sum += fs.Score
		}
		return clamp(sum/float64(len(scores)), 0, 100), nil
	}

	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}
	if math.Abs(weightSum-1.0) > weightEpsilon {
		return 0, &models.InvalidWeightConfigurationError{Scope: "overall score weights", Sum: weightSum}
	}

	var overall float64
	for _, fs := range scores {
		overall += fs.Score * weights[fs.FrameworkID]
	}
	return clamp(overall, 0, 100), nil
}

// TrustScore combines the sub-factors with the configured weights:
// score = Σ(factor_i * weight_i), clipped to [0,100]
func (s *Scorer) TrustScore(f models.TrustFactors) float64 {
	score := f.ControlEffectiveness*s.weights.ControlEffectiveness +
		f.EvidenceQuality*s.weights.EvidenceQuality +
		f.CoverageDepth*s.weights.CoverageDepth +
		f.Trend*s.weights.Trend
	return clamp(score, 0, 100)
}

// DeriveTrustFactors computes the trust sub-factors from the assessment
// inputs and the previous overall score (nil when no history exists)
func (s *Scorer) DeriveTrustFactors(
	overall float64,
	scores []models.FrameworkScore,
	statuses map[string][]models.ControlStatus,
	previousOverall *float64,
) models.TrustFactors {
	factors := models.TrustFactors{
		ControlEffectiveness: overall,
		Trend:                50, // neutral without history
	}

	total := 0
	assessed := 0
	withEvidence := 0
	for _, fs := range scores {
		total += fs.ControlsTotal
		assessed += fs.ControlsAssessed
	}
	for _, sts := range statuses {
		for _, st := range sts {
			if len(st.EvidenceRefs) > 0 {
				withEvidence++
			}
		}
	}

	if assessed > 0 {
		factors.EvidenceQuality = clamp(float64(withEvidence)/float64(assessed)*100, 0, 100)
	}
	if total > 0 {
		factors.CoverageDepth = clamp(float64(assessed)/float64(total)*100, 0, 100)
	}
	if previousOverall != nil && *previousOverall > 0 {
		factors.Trend = clamp(50+(overall-*previousOverall), 0, 100)
	}

	return factors
}

// TrendDirection classifies score movement against the previous overall
// score using a ±5% band
func TrendDirection(overall float64, previousOverall *float64) models.TrendDirection {
	if previousOverall == nil || *previousOverall == 0 {
		return models.TrendStable
	}
	change := (overall - *previousOverall) / *previousOverall
	switch {
	case change > 0.05:
		return models.TrendImproving
	case change < -0.05:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// clamp clamps a value between min and max
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
