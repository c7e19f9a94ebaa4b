package unittest

import (
	"fmt"
	"math/big"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evm-bench/evm/types"
	"github.com/onflow/evm-bench/model/evmblock"
)

const (
	// TransferSelector is the call data prefix of ERC-20 transfer(address,uint256)
	TransferSelector = "a9059cbb"
	// SwapSelector is a selector that is not in the default deterministic set
	SwapSelector = "38ed1739"
)

func AddressFixture() gethCommon.Address {
	var addr gethCommon.Address
	_, _ = rand.Read(addr[:])
	return addr
}

func HashFixture() gethCommon.Hash {
	var h gethCommon.Hash
	_, _ = rand.Read(h[:])
	return h
}

// CallData builds hex call data from a selector followed by n argument words
func CallData(selector string, words int) string {
	data := "0x" + selector
	for i := 0; i < words; i++ {
		data += fmt.Sprintf("%064x", i+1)
	}
	return data
}

// TransactionRecordFixture returns a zero-price token transfer between random accounts
func TransactionRecordFixture(opts ...func(*types.TransactionRecord)) *types.TransactionRecord {
	to := AddressFixture()
	input := CallData(TransferSelector, 2)
	tx := &types.TransactionRecord{
		Hash:     HashFixture(),
		From:     AddressFixture(),
		To:       &to,
		Value:    new(big.Int),
		Input:    input,
		Data:     gethCommon.FromHex(input),
		GasLimit: 60_000,
		GasPrice: new(big.Int),
	}
	for _, apply := range opts {
		apply(tx)
	}
	return tx
}

// WithInput sets both the raw and decoded call data
func WithInput(input string) func(*types.TransactionRecord) {
	return func(tx *types.TransactionRecord) {
		tx.Input = input
		tx.Data = gethCommon.FromHex(input)
	}
}

// WithContractCreation removes the recipient
func WithContractCreation() func(*types.TransactionRecord) {
	return func(tx *types.TransactionRecord) {
		tx.To = nil
	}
}

// TransactionRecordListFixture returns n records with their position set
func TransactionRecordListFixture(n int, opts ...func(*types.TransactionRecord)) []*types.TransactionRecord {
	txs := make([]*types.TransactionRecord, n)
	for i := range txs {
		txs[i] = TransactionRecordFixture(opts...)
		txs[i].Index = i
	}
	return txs
}

// TransactionFixture returns a block dump transaction for a plain value transfer
func TransactionFixture(opts ...func(*evmblock.Transaction)) evmblock.Transaction {
	tx := evmblock.Transaction{
		Hash:     evmblock.HexString(HashFixture().Hex()),
		From:     evmblock.HexString(AddressFixture().Hex()),
		To:       evmblock.HexString(AddressFixture().Hex()),
		Value:    "0x0",
		Input:    "0x",
		Gas:      evmblock.HexString(hexutil.EncodeUint64(21_000)),
		GasPrice: "0x0",
	}
	for _, apply := range opts {
		apply(&tx)
	}
	return tx
}

// WithCallData sets the input of a block dump transaction
func WithCallData(input string) func(*evmblock.Transaction) {
	return func(tx *evmblock.Transaction) {
		tx.Input = evmblock.HexString(input)
		tx.Gas = evmblock.HexString(hexutil.EncodeUint64(100_000))
	}
}

// WithoutRecipient turns a block dump transaction into a contract creation
func WithoutRecipient() func(*evmblock.Transaction) {
	return func(tx *evmblock.Transaction) {
		tx.To = ""
	}
}

// BlockFixture returns a post-merge block dump with the given transactions
func BlockFixture(number uint64, txs ...evmblock.Transaction) *evmblock.Block {
	if txs == nil {
		txs = []evmblock.Transaction{}
	}
	return &evmblock.Block{
		Number:        evmblock.HexString(hexutil.EncodeUint64(number)),
		Hash:          evmblock.HexString(HashFixture().Hex()),
		Timestamp:     evmblock.HexString(hexutil.EncodeUint64(1_700_000_000)),
		GasLimit:      evmblock.HexString(hexutil.EncodeUint64(30_000_000)),
		BaseFeePerGas: "0x0",
		Miner:         evmblock.HexString(AddressFixture().Hex()),
		Difficulty:    "0x0",
		MixHash:       evmblock.HexString(HashFixture().Hex()),
		Transactions:  &txs,
	}
}

// WriteBlockFile writes the block as <dir>/<prefix><number>.json, wrapped in
// a JSON-RPC response when envelope is set, and returns the file path
func WriteBlockFile(t testing.TB, dir string, prefix string, number uint64, block *evmblock.Block, envelope bool) string {
	var doc interface{} = block
	if envelope {
		doc = map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  block,
		}
	}
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(dir, fmt.Sprintf("%s%d.json", prefix, number))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
