package service

import "fmt"

// CheckoutState is the explicit state of one checkout attempt. The
// cash and card paths share Idle/Validating and the terminal states;
// only the middle differs.
type CheckoutState string

const (
	StateIdle           CheckoutState = "idle"
	StateValidating     CheckoutState = "validating"
	StateCashProcessing CheckoutState = "cash_processing"
	StateCardPending    CheckoutState = "card_pending"
	StateSuccess        CheckoutState = "success"
	StateFailed         CheckoutState = "failed"
)

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	StateIdle:           {StateValidating},
	StateValidating:     {StateCashProcessing, StateCardPending, StateFailed},
	StateCashProcessing: {StateSuccess, StateFailed},
	StateCardPending:    {StateSuccess, StateFailed},
	StateSuccess:        {},
	StateFailed:         {},
}

func (s CheckoutState) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

// Transition returns the next state, or an error when the step is not
// part of the checkout graph.
func Transition(from, to CheckoutState) (CheckoutState, error) {
	for _, allowed := range checkoutTransitions[from] {
		if allowed == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("illegal checkout transition %s -> %s", from, to)
}
