package models

import "fmt"

// UnknownFrameworkError is returned when a framework id is not present in
// the loaded catalog snapshot.
type UnknownFrameworkError struct {
	FrameworkID string
}

func (e *UnknownFrameworkError) Error() string {
	return fmt.Sprintf("unknown framework: %s", e.FrameworkID)
}

// UnknownControlError is returned when a control id cannot be resolved
// within a framework.
type UnknownControlError struct {
	FrameworkID string
	ControlID   string
}

func (e *UnknownControlError) Error() string {
	return fmt.Sprintf("unknown control %s in framework %s", e.ControlID, e.FrameworkID)
}

// InvalidWeightConfigurationError is returned at catalog or scorer load time
// when a weight table does not sum to 1.0 within tolerance.
type InvalidWeightConfigurationError struct {
	Scope string
	Sum   float64
}

func (e *InvalidWeightConfigurationError) Error() string {
	return fmt.Sprintf("invalid weight configuration for %s: weights sum to %.6f, expected 1.0", e.Scope, e.Sum)
}

// GapTransitionError is returned when a gap status change violates the
// append-only lifecycle (including any move out of resolved).
type GapTransitionError struct {
	From GapStatus
	To   GapStatus
}

func (e *GapTransitionError) Error() string {
	return fmt.Sprintf("invalid gap status transition: %s -> %s", e.From, e.To)
}

// UnknownJurisdictionError is returned when a supervisory authority contact
// is requested for an unregistered jurisdiction. Deadline computation does
// not depend on authority resolution and proceeds regardless.
type UnknownJurisdictionError struct {
	Jurisdiction string
}

func (e *UnknownJurisdictionError) Error() string {
	return fmt.Sprintf("unknown jurisdiction: %s", e.Jurisdiction)
}
