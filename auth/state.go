package auth

// State is the readiness of the token store.
type State int

const (
	// StateReady means callers may obtain a token.
	StateReady State = iota
	// StateLoading means a login or refresh cycle is in flight.
	StateLoading
	// StateFailed means the last cycle failed; Status().Err holds the reason.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateLoading:
		return "loading"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the auth state.
type Status struct {
	State State
	Err   error
}
