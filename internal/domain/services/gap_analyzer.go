package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/pkg/logger"
)

// Remediation windows per severity, applied from the analysis time
var remediationWindows = map[models.GapSeverity]time.Duration{
	models.GapSeverityCritical: 30 * 24 * time.Hour,
	models.GapSeverityHigh:     60 * 24 * time.Hour,
	models.GapSeverityMedium:   90 * 24 * time.Hour,
	models.GapSeverityLow:      180 * 24 * time.Hour,
}

// GapAnalyzer derives prioritized compliance gaps from control statuses.
// It is a pure function of (snapshot, statuses, mappings, asOf): identical
// inputs always yield an identically ordered list.
type GapAnalyzer struct {
	logger *logger.Logger
}

// NewGapAnalyzer creates a new GapAnalyzer
func NewGapAnalyzer(log *logger.Logger) *GapAnalyzer {
	return &GapAnalyzer{logger: log.WithComponent("gap-analyzer")}
}

// AnalyzeGaps compares current control maturity against targets and emits
// ordered gaps. Mappings from the mapper add evidence-gap entries for
// partially overlapping controls missing counterpart evidence.
func (a *GapAnalyzer) AnalyzeGaps(
	snap *CatalogSnapshot,
	frameworkID string,
	statuses []models.ControlStatus,
	mappings []models.ControlMapping,
	asOf time.Time,
) ([]models.ComplianceGap, error) {
	fw, err := snap.Framework(frameworkID)
	if err != nil {
		return nil, err
	}

	statusByID := make(map[string]models.ControlStatus, len(statuses))
	for _, st := range statuses {
		if _, _, ok := fw.FindControl(st.ControlID); !ok {
			return nil, &models.UnknownControlError{FrameworkID: frameworkID, ControlID: st.ControlID}
		}
		statusByID[st.ControlID] = st
	}

	var gaps []models.ComplianceGap
	for _, d := range fw.Domains {
		for _, ctl := range d.Controls {
			st, assessed := statusByID[ctl.ID]

			current := 0.0
			gapType := models.GapTypeMissingControl
			if assessed {
				current = clamp(st.CurrentMaturity, 0, models.MaturityScaleMax)
				gapType = models.GapTypePartialImplementation
			}

			delta := ctl.TargetMaturity - current
			if delta <= 0 {
				continue
			}

			severity := severityFromDelta(delta)
			gaps = append(gaps, a.newGap(frameworkID, &d, &ctl, gapType, severity, delta, asOf, ""))
		}
	}

	// Cross-framework evidence gaps: a mapped counterpart with overlap
	// below 100 and unmatched evidence requirements
	for _, mp := range mappings {
		if mp.SourceFrameworkID != frameworkID || mp.OverlapPercent >= 100 || len(mp.Gaps) == 0 {
			continue
		}
		ctl, dom, ok := fw.FindControl(mp.SourceControlID)
		if !ok {
			continue
		}
		counterpart := mp.TargetFrameworkID + "/" + mp.TargetControlID
		g := a.newGap(frameworkID, dom, ctl, models.GapTypeEvidenceGap, models.GapSeverityMedium, 0, asOf, counterpart)
		g.Description = fmt.Sprintf("Evidence for %s does not fully satisfy mapped control %s (%s): %s",
			ctl.ID, mp.TargetControlID, mp.TargetFrameworkID, mp.Gaps[0])
		g.Remediation = fmt.Sprintf("Collect the shared evidence set so %s testing also covers %s", ctl.ID, mp.TargetControlID)
		gaps = append(gaps, g)
	}

	sortGaps(gaps)

	a.logger.Debug().
		Str("framework", frameworkID).
		Int("gaps", len(gaps)).
		Msg("gap analysis completed")

	return gaps, nil
}

// newGap builds a gap record with a deterministic id so repeated analyses
// of the same inputs produce identical output. Evidence gaps carry the
// mapped counterpart in the seed: one source control mapped to several
// counterparts yields one gap per counterpart, not one shared id.
func (a *GapAnalyzer) newGap(
	frameworkID string,
	dom *models.Domain,
	ctl *models.Control,
	gapType models.GapType,
	severity models.GapSeverity,
	delta float64,
	asOf time.Time,
	counterpart string,
) models.ComplianceGap {
	seed := fmt.Sprintf("%s/%s/%s/%d", frameworkID, ctl.ID, gapType, asOf.Unix())
	if counterpart != "" {
		seed += "/" + counterpart
	}
	g := models.ComplianceGap{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)),
		FrameworkID: frameworkID,
		ControlID:   ctl.ID,
		Severity:    severity,
		Type:        gapType,
		Status:      models.GapStatusIdentified,
		TargetDate:  asOf.Add(remediationWindows[severity]),
		CreatedAt:   asOf,
		Impact: fmt.Sprintf("%s domain %q carries %s risk; shortfall on %s weakens the framework score",
			frameworkID, dom.Name, dom.RiskLevel, ctl.ID),
	}

	switch gapType {
	case models.GapTypeMissingControl:
		g.Description = fmt.Sprintf("Control %s (%s) has no assessment on record", ctl.ID, ctl.Name)
		g.Remediation = fmt.Sprintf("Assess %s and collect the required evidence: %v", ctl.ID, ctl.Evidence)
	case models.GapTypePartialImplementation:
		g.Description = fmt.Sprintf("Control %s (%s) is %.0f points below its target maturity", ctl.ID, ctl.Name, delta)
		g.Remediation = fmt.Sprintf("Raise %s maturity to %.0f through remediation of the assessed weaknesses", ctl.ID, ctl.TargetMaturity)
	}

	return g
}

// severityFromDelta buckets a maturity shortfall (0-100 points) into a
// gap severity. On the 5-level ladder 20 points equal one level.
func severityFromDelta(delta float64) models.GapSeverity {
	switch {
	case delta >= 50:
		return models.GapSeverityCritical
	case delta >= 30:
		return models.GapSeverityHigh
	case delta >= 15:
		return models.GapSeverityMedium
	default:
		return models.GapSeverityLow
	}
}

// sortGaps orders gaps by severity (critical first), then target date
// ascending, then control id for determinism
func sortGaps(gaps []models.ComplianceGap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Severity.Rank() != gaps[j].Severity.Rank() {
			return gaps[i].Severity.Rank() > gaps[j].Severity.Rank()
		}
		if !gaps[i].TargetDate.Equal(gaps[j].TargetDate) {
			return gaps[i].TargetDate.Before(gaps[j].TargetDate)
		}
		return gaps[i].ControlID < gaps[j].ControlID
	})
}
