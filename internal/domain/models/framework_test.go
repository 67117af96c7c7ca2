package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundScoreHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 75.3, RoundScore(75.25))
	assert.Equal(t, -75.3, RoundScore(-75.25))
	assert.Equal(t, 75.2, RoundScore(75.24))
	assert.Equal(t, 0.0, RoundScore(0))
	assert.Equal(t, 100.0, RoundScore(99.99))
}

func TestFindControl(t *testing.T) {
	fw := &Framework{
		ID: "fw",
		Domains: []Domain{
			{ID: "d1", Controls: []Control{{ID: "C-01"}, {ID: "C-02"}}},
			{ID: "d2", Controls: []Control{{ID: "C-03"}}},
		},
	}

	ctl, dom, ok := fw.FindControl("C-03")
	require.True(t, ok)
	assert.Equal(t, "C-03", ctl.ID)
	assert.Equal(t, "d2", dom.ID)

	_, _, ok = fw.FindControl("C-99")
	assert.False(t, ok)

	assert.Equal(t, 3, fw.ControlCount())
}
