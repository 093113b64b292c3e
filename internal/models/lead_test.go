package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestLeadEffectiveScore(t *testing.T) {
	assert.Equal(t, 50, Lead{}.EffectiveScore())
	assert.Equal(t, 0, Lead{Score: intPtr(0)}.EffectiveScore())
	assert.Equal(t, 87, Lead{Score: intPtr(87)}.EffectiveScore())
	assert.Equal(t, 100, Lead{Score: intPtr(140)}.EffectiveScore())
	assert.Equal(t, 0, Lead{Score: intPtr(-3)}.EffectiveScore())
}

func TestLeadStatusValid(t *testing.T) {
	for _, stage := range LeadStages {
		assert.True(t, stage.Valid(), stage)
	}
	assert.False(t, LeadStatus("LOST").Valid())
	assert.False(t, LeadStatusUnknown.Valid())
	assert.False(t, LeadStatus("new").Valid())
}
