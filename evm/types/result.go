package types

import (
	"time"
)

// Status captures the status of a transaction execution
type Status uint8

const (
	// StatusUnknown is the zero value, an outcome carrying it was never produced by an executor
	StatusUnknown Status = iota
	// StatusInvalid shows that the transaction was rejected before any state change
	// (e.g. insufficient balance for gas*price+value, intrinsic gas too low)
	// or that the engine itself could not run it.
	StatusInvalid
	// StatusFailed shows that the transaction ran but the evm reported an error
	// (e.g. revert, out of gas)
	StatusFailed
	// StatusSuccessful shows that the transaction ran to completion
	StatusSuccessful
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusFailed:
		return "failed"
	case StatusSuccessful:
		return "successful"
	default:
		return "unknown"
	}
}

// Outcome captures the result of executing a single transaction.
//
// Executing a transaction never returns an error, whatever went wrong is
// recorded here so a single bad transaction can't stop a block.
type Outcome struct {
	Status Status
	// gas used by the transaction, zero for invalid transactions
	GasConsumed uint64
	// the vm error for failed transactions or the validation error
	// for invalid ones
	Err error
	// wall clock time spent in the engine call
	Elapsed time.Duration
}

// Invalid returns true if the transaction was rejected
func (o Outcome) Invalid() bool {
	return o.Status == StatusInvalid
}

// Failed returns true if the transaction was executed but the vm returned an error
func (o Outcome) Failed() bool {
	return o.Status == StatusFailed
}

// NewInvalidOutcome constructs an outcome for a rejected transaction
func NewInvalidOutcome(err error, elapsed time.Duration) Outcome {
	return Outcome{
		Status:  StatusInvalid,
		Err:     err,
		Elapsed: elapsed,
	}
}
