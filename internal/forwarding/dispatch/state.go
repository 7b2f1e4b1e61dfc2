package dispatch

// State is the dispatcher's position in one forward invocation.
type State string

const (
	StateIdle              State = "idle"
	StateSubmitting        State = "submitting"
	StateRetrying          State = "retrying"
	StateSucceeded         State = "succeeded"
	StatePermanentlyFailed State = "permanently_failed"
)

// ValidTransitions defines allowed state transitions. Succeeded and
// PermanentlyFailed are terminal.
var ValidTransitions = map[State][]State{
	StateIdle:       {StateSubmitting},
	StateSubmitting: {StateSucceeded, StateRetrying, StatePermanentlyFailed},
	StateRetrying:   {StateSubmitting},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// RetryState is the mutable state of one in-flight invocation. Never shared
// across invocations; discarded on termination.
type RetryState struct {
	Fee         int64 // current fee per operation in stroops
	Attempts    int
	Destination string
	Stroops     int64
}
