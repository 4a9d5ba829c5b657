package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Step
		to   Step
		want bool
	}{
		{StepCapture, StepPreview, true},
		{StepPreview, StepCapture, true},
		{StepPreview, StepMarketplaces, true},
		{StepMarketplaces, StepPreview, true},
		{StepMarketplaces, StepPublishing, true},
		{StepPublishing, StepCapture, true},

		// No skipping forward or regressing past one step.
		{StepCapture, StepMarketplaces, false},
		{StepCapture, StepPublishing, false},
		{StepPreview, StepPublishing, false},
		{StepMarketplaces, StepCapture, false},
		{StepPublishing, StepPreview, false},
		{StepPublishing, StepMarketplaces, false},

		// Self transitions are no-ops.
		{StepCapture, StepCapture, true},
		{StepPublishing, StepPublishing, true},

		{Step("bogus"), StepCapture, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
