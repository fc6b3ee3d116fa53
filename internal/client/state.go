// ABOUTME: Session lifecycle states for one client connection
// ABOUTME: Tracks the initialize handshake progression and fault state

package client

// State is the session lifecycle of one connection. The handshake walks
// UNINITIALIZED through ACTIVE; ERROR_STATE is reachable from anywhere on
// an unrecoverable fault. Disconnect walks SHUTTING_DOWN and SHUTDOWN
// (socket and capture record released) before resting at UNINITIALIZED,
// ready for a reconnect.
type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateInitializing  State = "INITIALIZING"
	StateInitialized   State = "INITIALIZED"
	StateActive        State = "ACTIVE"
	StateShuttingDown  State = "SHUTTING_DOWN"
	StateShutdown      State = "SHUTDOWN"
	StateError         State = "ERROR_STATE"
)

var transitions = map[State][]State{
	StateUninitialized: {StateInitializing, StateShuttingDown},
	StateInitializing:  {StateInitialized},
	StateInitialized:   {StateActive, StateShuttingDown},
	StateActive:        {StateShuttingDown},
	StateShuttingDown:  {StateShutdown},
	StateShutdown:      {StateUninitialized},
}

// CanTransition reports whether moving from one state to another is a
// legal step. ERROR_STATE is reachable from any state, and any state may
// reset to UNINITIALIZED when the socket closes.
func CanTransition(from, to State) bool {
	if to == StateError || to == StateUninitialized {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
