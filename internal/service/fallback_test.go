package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackPolicy_OnFailure(t *testing.T) {
	p := NewFallbackPolicy(DefaultFallbackThreshold, true)

	assert.False(t, p.OnFailure(), "a single failure must not escalate")
	assert.True(t, p.OnFailure(), "the second consecutive failure escalates")
	assert.True(t, p.OnFailure())
	assert.Equal(t, 3, p.Failures())
}

func TestFallbackPolicy_SuccessBeforeThresholdResets(t *testing.T) {
	for _, sticky := range []bool{true, false} {
		p := NewFallbackPolicy(2, sticky)

		assert.False(t, p.OnFailure())
		p.OnSuccess()
		assert.Equal(t, 0, p.Failures())
		assert.False(t, p.OnFailure(), "counter restarted, sticky=%v", sticky)
	}
}

func TestFallbackPolicy_SuccessAfterEscalation(t *testing.T) {
	tests := []struct {
		name              string
		sticky            bool
		expectedEscalated bool
		expectedFailures  int
	}{
		{
			name:              "sticky keeps the native language",
			sticky:            true,
			expectedEscalated: true,
			expectedFailures:  2,
		},
		{
			name:              "non-sticky returns to the target language",
			sticky:            false,
			expectedEscalated: false,
			expectedFailures:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewFallbackPolicy(2, tt.sticky)
			p.OnFailure()
			p.OnFailure()

			p.OnSuccess()

			assert.Equal(t, tt.expectedEscalated, p.Escalated())
			assert.Equal(t, tt.expectedFailures, p.Failures())
		})
	}
}

func TestNewFallbackPolicy_DefaultThreshold(t *testing.T) {
	p := NewFallbackPolicy(0, false)

	assert.False(t, p.OnFailure())
	assert.True(t, p.OnFailure())
}
