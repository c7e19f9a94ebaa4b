package types

// ClassLabel is the scheduling class assigned to a transaction.
type ClassLabel uint8

const (
	// Deterministic transactions are assumed not to touch overlapping state.
	Deterministic ClassLabel = iota
	// NonDeterministic is the default class for anything not known to be simple.
	NonDeterministic
)

// ClassLabels lists the labels in execution order.
var ClassLabels = []ClassLabel{Deterministic, NonDeterministic}

func (l ClassLabel) String() string {
	switch l {
	case Deterministic:
		return "deterministic"
	case NonDeterministic:
		return "non_deterministic"
	default:
		return "unknown"
	}
}
