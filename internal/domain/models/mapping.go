package models

// MappingType classifies the strength of a cross-framework control mapping
type MappingType string

const (
	MappingTypeDirect        MappingType = "direct"
	MappingTypePartial       MappingType = "partial"
	MappingTypeComplementary MappingType = "complementary"
)

// String returns the string representation
func (m MappingType) String() string {
	return string(m)
}

// ControlMapping is a declared correspondence between a control in one
// framework and a control in another. Overlap of 100 always implies a
// direct mapping.
type ControlMapping struct {
	SourceFrameworkID string      `json:"source_framework_id"`
	SourceControlID   string      `json:"source_control_id"`
	TargetFrameworkID string      `json:"target_framework_id"`
	TargetControlID   string      `json:"target_control_id"`
	Type              MappingType `json:"type"`
	OverlapPercent    float64     `json:"overlap_percent"`
	SharedEvidence    []string    `json:"shared_evidence,omitempty"`
	Gaps              []string    `json:"gaps,omitempty"`
	CoordinationPlan  string      `json:"coordination_plan,omitempty"`
}
