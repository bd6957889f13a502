package device

// TransitionTable is an immutable lookup of legal lifecycle transitions.
// Build it once at startup with DefaultTransitions and pass it into the
// services that need it.
type TransitionTable struct {
	allowed map[DeviceStatus][]DeviceStatus
}

// DefaultTransitions builds the production transition graph. The graph is
// directed and has no terminal states.
func DefaultTransitions() *TransitionTable {
	return &TransitionTable{
		allowed: map[DeviceStatus][]DeviceStatus{
			StatusPending:      {StatusActive, StatusInactive},
			StatusActive:       {StatusInactive, StatusMaintenance, StatusDisconnected},
			StatusInactive:     {StatusActive, StatusMaintenance},
			StatusMaintenance:  {StatusActive, StatusInactive},
			StatusDisconnected: {StatusActive, StatusInactive, StatusMaintenance},
		},
	}
}

// CanTransition reports whether from -> to is a legal edge. Self-transitions
// are never legal.
func (t *TransitionTable) CanTransition(from, to DeviceStatus) bool {
	for _, allowed := range t.allowed[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns a copy of the successor set for the given status.
func (t *TransitionTable) AllowedTargets(from DeviceStatus) []DeviceStatus {
	targets := t.allowed[from]
	out := make([]DeviceStatus, len(targets))
	copy(out, targets)
	return out
}

// DisablesMonitoring reports whether entering the status clears the
// monitoring feature flags by default.
func DisablesMonitoring(status DeviceStatus) bool {
	switch status {
	case StatusInactive, StatusMaintenance, StatusDisconnected:
		return true
	}
	return false
}
