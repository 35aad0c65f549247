package scan

// State is the lifecycle position of a Run.
//
// The lifecycle follows this flow:
//
//	Idle → Launching → Scanning → Aggregating → Done
//	Idle → Aggregating → Done   (every target served from cache)
//	Idle | Launching → Failed
//
// Done is reached even when individual targets fail. Only setup errors and a
// failed browser launch end in Failed.
type State int32

// State constants.
const (
	StateIdle State = iota
	StateLaunching
	StateScanning
	StateAggregating
	StateDone
	StateFailed
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLaunching:
		return "launching"
	case StateScanning:
		return "scanning"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
