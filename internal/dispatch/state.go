package dispatch

// State is a step of the per-request lifecycle.
type State string

const (
	StateReceived  State = "received"
	StateResolved  State = "resolved"
	StateValidated State = "validated"
	StateInvoked   State = "invoked"
	StateResponded State = "responded"

	StateRouteNotFound    State = "route_not_found"
	StateValidationFailed State = "validation_failed"
	StateHandlerFailed    State = "handler_failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateResponded, StateRouteNotFound, StateValidationFailed, StateHandlerFailed:
		return true
	}
	return false
}
