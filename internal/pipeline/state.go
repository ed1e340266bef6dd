package pipeline

// candidateState tracks one candidate through the run. Transitions are
// forward-only; evaluated and skipped are terminal.
type candidateState int

const (
	statePending candidateState = iota
	stateExtracted
	stateEvaluated
	stateSkipped
)

func (s candidateState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateExtracted:
		return "extracted"
	case stateEvaluated:
		return "evaluated"
	case stateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

func (s candidateState) terminal() bool {
	return s == stateEvaluated || s == stateSkipped
}

// advance moves the state forward; backward transitions and transitions out
// of a terminal state are ignored.
func (s candidateState) advance(to candidateState) candidateState {
	if s.terminal() || to < s {
		return s
	}
	return to
}
