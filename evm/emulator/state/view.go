package state

import (
	"fmt"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gethState "github.com/ethereum/go-ethereum/core/state"
	gethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/onflow/evm-bench/evm/types"
)

// View is a state view backed by a go-ethereum StateDB.
//
// All views created from the same base share one caching trie database, a
// view is identified there by the root hash it was opened at. Forking opens a
// new StateDB at that root, so a fork never sees the pending changes of its
// parent or of its siblings. Views are never committed.
type View struct {
	db    gethState.Database
	root  gethCommon.Hash
	state *gethState.StateDB
}

var _ types.StateView = &View{}

// NewEmptyView returns a view over an empty world state kept in memory
func NewEmptyView() (*View, error) {
	db := gethState.NewDatabase(rawdb.NewMemoryDatabase())
	return newView(db, gethTypes.EmptyRootHash)
}

func newView(db gethState.Database, root gethCommon.Hash) (*View, error) {
	st, err := gethState.New(root, db, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open state at root %s: %w", root.Hex(), err)
	}
	return &View{
		db:    db,
		root:  root,
		state: st,
	}, nil
}

// Fork returns an independent view starting at the root this view was opened at.
// It is safe to fork the same view from many goroutines.
func (v *View) Fork() (types.StateView, error) {
	return newView(v.db, v.root)
}

// StateDB returns the StateDB of this view
func (v *View) StateDB() vm.StateDB {
	return v.state
}

// Root returns the root hash the view was opened at
func (v *View) Root() gethCommon.Hash {
	return v.root
}
