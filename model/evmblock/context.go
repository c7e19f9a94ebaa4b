package evmblock

import (
	"github.com/onflow/evm-bench/evm/types"
)

// NewBlockContext builds the execution context of a block.
//
// It never fails: each field is decoded on its own and an absent or
// unparseable one is left at zero. Blocks with zero difficulty are
// post-merge and carry their mixHash as the random value.
func NewBlockContext(b *Block) *types.BlockContext {
	ctx := &types.BlockContext{
		Number:     b.Number.Uint64Or(0),
		Timestamp:  b.Timestamp.Uint64Or(0),
		GasLimit:   b.GasLimit.Uint64Or(0),
		BaseFee:    b.BaseFeePerGas.BigOrZero(),
		Difficulty: b.Difficulty.BigOrZero(),
	}
	ctx.Coinbase, _ = b.Miner.Address()
	if ctx.Difficulty.Sign() == 0 {
		random, _ := b.MixHash.Hash()
		ctx.Random = &random
	}
	return ctx
}
