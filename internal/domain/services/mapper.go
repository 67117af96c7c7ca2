package services

import (
	"fmt"
	"sort"
	"strings"

	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/models"
	"complyguard-lab/pkg/logger"
)

// ControlMapper computes cross-framework control mappings. The similarity
// estimate blends keyword-set overlap (Jaccard) with declared-category
// agreement; it is deterministic and symmetric in its two arguments.
type ControlMapper struct {
	config config.MappingConfig
	logger *logger.Logger
}

// NewControlMapper creates a new ControlMapper
func NewControlMapper(cfg config.MappingConfig, log *logger.Logger) *ControlMapper {
	if cfg.MinOverlap == 0 && cfg.DirectOverlap == 0 && cfg.PartialOverlap == 0 {
		cfg = config.DefaultMappingConfig()
	}
	return &ControlMapper{
		config: cfg,
		logger: log.WithComponent("mapper"),
	}
}

// MapControls computes pairwise mappings between two frameworks in the
// given snapshot. Pairs below the minimum overlap threshold are dropped.
func (m *ControlMapper) MapControls(snap *CatalogSnapshot, sourceID, targetID string) ([]models.ControlMapping, error) {
	source, err := snap.Framework(sourceID)
	if err != nil {
		return nil, err
	}
	target, err := snap.Framework(targetID)
	if err != nil {
		return nil, err
	}

	var mappings []models.ControlMapping
	for _, sd := range source.Domains {
		for _, sc := range sd.Controls {
			srcTokens := controlTokens(&sc)
			for _, td := range target.Domains {
				for _, tc := range td.Controls {
					overlap := m.overlapPercent(srcTokens, &sc, &tc)
					if overlap < m.config.MinOverlap {
						continue
					}

					mapping := models.ControlMapping{
						SourceFrameworkID: sourceID,
						SourceControlID:   sc.ID,
						TargetFrameworkID: targetID,
						TargetControlID:   tc.ID,
						Type:              m.mappingType(overlap),
						OverlapPercent:    overlap,
						SharedEvidence:    sharedEvidence(sc.Evidence, tc.Evidence),
						Gaps:              evidenceGaps(&sc, &tc),
					}
					mapping.CoordinationPlan = coordinationPlan(mapping.Type, sc.ID, tc.ID)
					mappings = append(mappings, mapping)
				}
			}
		}
	}

	m.logger.Debug().
		Str("source", sourceID).
		Str("target", targetID).
		Int("mappings", len(mappings)).
		Msg("control mapping computed")

	return mappings, nil
}

// overlapPercent returns the 0-100 overlap estimate for a control pair
func (m *ControlMapper) overlapPercent(srcTokens map[string]struct{}, src, tgt *models.Control) float64 {
	tgtTokens := controlTokens(tgt)

	similarity := 0.8 * jaccard(srcTokens, tgtTokens)
	if src.Category != "" && src.Category == tgt.Category {
		similarity += 0.2
	}

	return clamp(similarity*100, 0, 100)
}

// mappingType derives the mapping classification from the overlap
func (m *ControlMapper) mappingType(overlap float64) models.MappingType {
	switch {
	case overlap >= m.config.DirectOverlap:
		return models.MappingTypeDirect
	case overlap >= m.config.PartialOverlap:
		return models.MappingTypePartial
	default:
		return models.MappingTypeComplementary
	}
}

// controlTokens builds the normalized token set of a control from its
// declared keywords and description
func controlTokens(ctl *models.Control) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, kw := range ctl.Keywords {
		if t := normalizeToken(kw); t != "" {
			tokens[t] = struct{}{}
		}
	}
	for _, word := range strings.FieldsFunc(ctl.Description, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9')
	}) {
		if t := normalizeToken(word); t != "" {
			tokens[t] = struct{}{}
		}
	}
	return tokens
}

var stopwords = map[string]struct{}{
	"and": {}, "are": {}, "for": {}, "the": {}, "with": {}, "its": {},
	"that": {}, "this": {}, "from": {}, "into": {}, "over": {}, "each": {},
}

func normalizeToken(word string) string {
	t := strings.ToLower(strings.TrimSpace(word))
	if len(t) < 3 {
		return ""
	}
	if _, stop := stopwords[t]; stop {
		return ""
	}
	return t
}

// jaccard returns |a ∩ b| / |a ∪ b|
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// sharedEvidence returns the sorted intersection of two evidence sets
func sharedEvidence(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, e := range b {
		set[e] = struct{}{}
	}
	var shared []string
	for _, e := range a {
		if _, ok := set[e]; ok {
			shared = append(shared, e)
		}
	}
	sort.Strings(shared)
	return shared
}

// evidenceGaps enumerates evidence requirements present on one side of a
// mapping and absent from the other
func evidenceGaps(src, tgt *models.Control) []string {
	var gaps []string
	tgtSet := make(map[string]struct{}, len(tgt.Evidence))
	for _, e := range tgt.Evidence {
		tgtSet[e] = struct{}{}
	}
	srcSet := make(map[string]struct{}, len(src.Evidence))
	for _, e := range src.Evidence {
		srcSet[e] = struct{}{}
	}

	for _, e := range src.Evidence {
		if _, ok := tgtSet[e]; !ok {
			gaps = append(gaps, fmt.Sprintf("%s requires evidence %q not collected for %s", src.ID, e, tgt.ID))
		}
	}
	for _, e := range tgt.Evidence {
		if _, ok := srcSet[e]; !ok {
			gaps = append(gaps, fmt.Sprintf("%s requires evidence %q not collected for %s", tgt.ID, e, src.ID))
		}
	}
	sort.Strings(gaps)
	return gaps
}

func coordinationPlan(t models.MappingType, srcID, tgtID string) string {
	switch t {
	case models.MappingTypeDirect:
		return fmt.Sprintf("Test %s once and reuse the results to satisfy %s", srcID, tgtID)
	case models.MappingTypePartial:
		return fmt.Sprintf("Coordinate overlapping procedures between %s and %s; cover the residual requirements separately", srcID, tgtID)
	default:
		return fmt.Sprintf("Align assessment schedules for %s and %s to share preparation effort", srcID, tgtID)
	}
}
