package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to CheckoutState
		ok       bool
	}{
		{StateIdle, StateValidating, true},
		{StateValidating, StateCashProcessing, true},
		{StateValidating, StateCardPending, true},
		{StateValidating, StateFailed, true},
		{StateCashProcessing, StateSuccess, true},
		{StateCashProcessing, StateFailed, true},
		{StateCardPending, StateSuccess, true},
		{StateCardPending, StateFailed, true},

		{StateIdle, StateSuccess, false},
		{StateIdle, StateCashProcessing, false},
		{StateValidating, StateSuccess, false},
		{StateSuccess, StateIdle, false},
		{StateFailed, StateValidating, false},
		{StateCashProcessing, StateCardPending, false},
	}

	for _, tt := range tests {
		next, err := Transition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.to, next)
		} else {
			assert.Error(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.from, next, "illegal step must not move the state")
		}
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StateSuccess.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateValidating.Terminal())
	assert.False(t, StateCashProcessing.Terminal())
	assert.False(t, StateCardPending.Terminal())
}
