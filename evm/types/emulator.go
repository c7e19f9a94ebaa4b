package types

import (
	"github.com/ethereum/go-ethereum/core/vm"
)

// StateView is a snapshot of the evm world state a transaction executes against.
//
// A fork is independent from its parent: writes to a fork are never visible to
// the parent or to sibling forks, and forks are never merged back.
type StateView interface {
	// Fork returns a new view that starts from the current content of this view
	Fork() (StateView, error)
	// StateDB returns the mutable state backing this view
	StateDB() vm.StateDB
}

// Executor runs a single transaction against a state view
type Executor interface {
	// Execute runs the transaction once and returns its outcome.
	// It never returns an error, failures are recorded on the outcome.
	Execute(view StateView, ctx *BlockContext, tx *TransactionRecord) Outcome
}
