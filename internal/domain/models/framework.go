package models

import (
	"math"
	"time"
)

// RiskLevel represents the inherent risk level of a compliance domain
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// ParseRiskLevel converts a string to a RiskLevel
func ParseRiskLevel(s string) RiskLevel {
	switch s {
	case "low":
		return RiskLevelLow
	case "medium":
		return RiskLevelMedium
	case "high":
		return RiskLevelHigh
	case "critical":
		return RiskLevelCritical
	default:
		return RiskLevelMedium
	}
}

// String returns the string representation
func (r RiskLevel) String() string {
	return string(r)
}

// Rank returns a numeric rank for ordering (critical highest)
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLevelCritical:
		return 4
	case RiskLevelHigh:
		return 3
	case RiskLevelMedium:
		return 2
	case RiskLevelLow:
		return 1
	default:
		return 0
	}
}

// Maturity is expressed on a 0-100 scale. The classic 0-5 maturity ladder
// maps onto it at 20 points per level.
const (
	MaturityScaleMax    = 100.0
	MaturityLevelPoints = 20.0
)

// Framework is an immutable regulatory framework definition
type Framework struct {
	ID          string   `json:"id" db:"id"`
	Name        string   `json:"name" db:"name"`
	Version     string   `json:"version" db:"version"`
	Description string   `json:"description,omitempty" db:"description"`
	Domains     []Domain `json:"domains"`
}

// Domain groups related controls within a framework. Weight is the domain's
// share of the framework score; weights across a framework sum to 1.0.
type Domain struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RiskLevel RiskLevel `json:"risk_level"`
	Weight    float64   `json:"weight"`
	Controls  []Control `json:"controls"`
}

// Control is a single requirement within a domain
type Control struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Keywords       []string `json:"keywords,omitempty"`
	Weight         float64  `json:"weight"`
	TargetMaturity float64  `json:"target_maturity"`
	Evidence       []string `json:"evidence,omitempty"`
}

// ControlStatus is the assessed state of a control, supplied by the
// evidence-collection side
type ControlStatus struct {
	ControlID       string    `json:"control_id"`
	CurrentMaturity float64   `json:"current_maturity"`
	EvidenceRefs    []string  `json:"evidence_refs,omitempty"`
	LastAssessed    time.Time `json:"last_assessed"`
}

// ControlCount returns the number of controls across all domains
func (f *Framework) ControlCount() int {
	n := 0
	for _, d := range f.Domains {
		n += len(d.Controls)
	}
	return n
}

// FindControl looks up a control by id across all domains
func (f *Framework) FindControl(controlID string) (*Control, *Domain, bool) {
	for i := range f.Domains {
		d := &f.Domains[i]
		for j := range d.Controls {
			if d.Controls[j].ID == controlID {
				return &d.Controls[j], d, true
			}
		}
	}
	return nil, nil, false
}

// RoundScore rounds a score to one decimal place, half away from zero.
// Display values only; aggregation always uses unrounded intermediates.
func RoundScore(v float64) float64 {
	if v < 0 {
		return -math.Floor(-v*10+0.5) / 10
	}
	return math.Floor(v*10+0.5) / 10
}
