package types

import (
	"math/big"

	gethCommon "github.com/ethereum/go-ethereum/common"
)

// BlockContext holds the execution parameters shared by every transaction of
// a block. It is built once per block and only read afterwards, so it can be
// handed to any number of workers.
type BlockContext struct {
	Number    uint64
	Timestamp uint64
	GasLimit  uint64
	// never nil, zero if the block has no base fee
	BaseFee    *big.Int
	Coinbase   gethCommon.Address
	Difficulty *big.Int
	// Random is the block's mixHash for post-merge blocks and nil before the merge.
	Random *gethCommon.Hash
}

// BigNumber returns the block number as a big.Int
func (ctx *BlockContext) BigNumber() *big.Int {
	return new(big.Int).SetUint64(ctx.Number)
}
