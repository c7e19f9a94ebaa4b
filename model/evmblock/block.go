package evmblock

import (
	"github.com/onflow/evm-bench/evm/types"
)

// Block is a historical block as returned by eth_getBlockByNumber with
// full transaction objects. Only the fields used for execution are kept.
type Block struct {
	Number        HexString `json:"number"`
	Hash          HexString `json:"hash"`
	Timestamp     HexString `json:"timestamp"`
	GasLimit      HexString `json:"gasLimit"`
	BaseFeePerGas HexString `json:"baseFeePerGas"`
	Miner         HexString `json:"miner"`
	Difficulty    HexString `json:"difficulty"`
	MixHash       HexString `json:"mixHash"`
	// nil when the field is absent or null
	Transactions *[]Transaction `json:"transactions"`
}

// Transaction is a transaction object of a block dump
type Transaction struct {
	Hash     HexString `json:"hash"`
	From     HexString `json:"from"`
	To       HexString `json:"to"`
	Value    HexString `json:"value"`
	Input    HexString `json:"input"`
	Gas      HexString `json:"gas"`
	GasPrice HexString `json:"gasPrice"`
}

// TransactionRecords converts the transactions of the block, in block order.
func (b *Block) TransactionRecords() []*types.TransactionRecord {
	if b.Transactions == nil {
		return nil
	}
	txs := *b.Transactions
	records := make([]*types.TransactionRecord, len(txs))
	for i := range txs {
		records[i] = txs[i].Record(i)
	}
	return records
}

// Record converts the transaction into a record at the given position.
//
// Every field is decoded on its own and falls back to a zero value:
// an absent, null or empty `to` means contract creation, a malformed one
// is kept as a call to the zero address. Absent or malformed gas gives
// types.DefaultGasLimit.
func (tx *Transaction) Record(index int) *types.TransactionRecord {
	rec := &types.TransactionRecord{
		Index:    index,
		Input:    string(tx.Input),
		Data:     tx.Input.Bytes(),
		Value:    tx.Value.BigOrZero(),
		GasPrice: tx.GasPrice.BigOrZero(),
		GasLimit: tx.Gas.Uint64Or(types.DefaultGasLimit),
	}
	rec.Hash, _ = tx.Hash.Hash()
	rec.From, _ = tx.From.Address()
	if !tx.To.IsEmpty() {
		to, _ := tx.To.Address()
		rec.To = &to
	}
	return rec
}
