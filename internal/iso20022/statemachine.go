package iso20022

import "github.com/nexusgw/gateway/internal/model"

// transitions enumerates the payment state machine's legal moves (spec §4.5).
var transitions = map[model.PaymentStatus]map[model.PaymentStatus]bool{
	model.StatusReceived:  {model.StatusSubmitted: true},
	model.StatusSubmitted: {model.StatusAccepted: true, model.StatusRejected: true},
	model.StatusAccepted:  {model.StatusReturned: true, model.StatusRecalled: true},
}

// CanTransition reports whether moving a payment from `from` to `to` is
// a legal state-machine edge.
func CanTransition(from, to model.PaymentStatus) bool {
	return transitions[from][to]
}
