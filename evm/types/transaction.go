package types

import (
	"math/big"

	gethCommon "github.com/ethereum/go-ethereum/common"
)

// DefaultGasLimit is used for transactions that carry no usable gas field.
const DefaultGasLimit = uint64(30_000_000)

// TransactionRecord is a read-only view over one transaction of a historical
// block. It is built once when the block is loaded and shared by reference
// afterwards; nothing mutates it.
type TransactionRecord struct {
	// position of the transaction in its block
	Index int
	Hash  gethCommon.Hash
	From  gethCommon.Address
	// nil for contract creation
	To    *gethCommon.Address
	Value *big.Int
	// Input is the call data exactly as it appears in the block (hex encoded),
	// Data is its decoded form (empty if the hex could not be decoded).
	Input    string
	Data     []byte
	GasLimit uint64
	GasPrice *big.Int
}

// IsContractCreation returns true if the transaction has no recipient.
func (tx *TransactionRecord) IsContractCreation() bool {
	return tx.To == nil
}
