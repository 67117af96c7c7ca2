package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGapStatusTransitions(t *testing.T) {
	assert.True(t, GapStatusIdentified.ValidTransition(GapStatusInProgress))
	assert.True(t, GapStatusIdentified.ValidTransition(GapStatusResolved))
	assert.True(t, GapStatusInProgress.ValidTransition(GapStatusResolved))

	assert.False(t, GapStatusInProgress.ValidTransition(GapStatusIdentified))
	assert.False(t, GapStatusResolved.ValidTransition(GapStatusIdentified), "resolved is terminal")
	assert.False(t, GapStatusResolved.ValidTransition(GapStatusInProgress))
	assert.False(t, GapStatusIdentified.ValidTransition(GapStatusIdentified))
}

func TestGapTransitionErrorUnwrapsWithErrorsAs(t *testing.T) {
	base := &GapTransitionError{From: GapStatusResolved, To: GapStatusInProgress}
	wrapped := fmt.Errorf("update gap status: %w", base)

	var transition *GapTransitionError
	require.True(t, errors.As(wrapped, &transition))
	assert.Equal(t, GapStatusResolved, transition.From)
	assert.Equal(t, GapStatusInProgress, transition.To)
	assert.Equal(t, "invalid gap status transition: resolved -> in_progress", transition.Error())
}

func TestGapSeverityRank(t *testing.T) {
	assert.Greater(t, GapSeverityCritical.Rank(), GapSeverityHigh.Rank())
	assert.Greater(t, GapSeverityHigh.Rank(), GapSeverityMedium.Rank())
	assert.Greater(t, GapSeverityMedium.Rank(), GapSeverityLow.Rank())
	assert.Zero(t, GapSeverity("bogus").Rank())
}
