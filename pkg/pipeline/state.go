package pipeline

// State is a step of a run.
type State string

const (
	StateStart        State = "start"
	StateChecking     State = "checking"
	StateUnreachable  State = "unreachable"
	StateReachable    State = "reachable"
	StateDiscovering  State = "discovering"
	StateNoPortsFound State = "no_ports_found"
	StatePortsFound   State = "ports_found"
	StateProbing      State = "probing"
	StateDone         State = "done"
)

var transitions = map[State][]State{
	StateStart:       {StateChecking},
	StateChecking:    {StateUnreachable, StateReachable},
	StateReachable:   {StateDiscovering},
	StateDiscovering: {StateNoPortsFound, StatePortsFound},
	StatePortsFound:  {StateProbing},
	StateProbing:     {StateDone},
}

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	return s == StateUnreachable || s == StateNoPortsFound || s == StateDone
}

// CanTransition reports whether from → to is an edge of the run graph.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Label is the human-readable form used in the run summary.
func (s State) Label() string {
	switch s {
	case StateUnreachable:
		return "host unreachable"
	case StateNoPortsFound:
		return "no open ports"
	case StateDone:
		return "detailed scan complete"
	default:
		return string(s)
	}
}
