package evmblock

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMissingTransactions is returned for block documents without a transactions list
var ErrMissingTransactions = errors.New("block has no transactions field")

// ReadFile reads and decodes a block file
func ReadFile(path string) (*Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read block file %s: %w", path, err)
	}
	block, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("could not decode block file %s: %w", path, err)
	}
	return block, nil
}

// Decode decodes a block document. The document is either a bare block
// object or a JSON-RPC response carrying the block under `result`.
func Decode(data []byte) (*Block, error) {
	var envelope struct {
		Result jsoniter.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("invalid block document: %w", err)
	}

	body := data
	if len(envelope.Result) > 0 && !bytes.Equal(bytes.TrimSpace(envelope.Result), []byte("null")) {
		body = envelope.Result
	}

	var block Block
	if err := json.Unmarshal(body, &block); err != nil {
		return nil, fmt.Errorf("invalid block object: %w", err)
	}
	if block.Transactions == nil {
		return nil, ErrMissingTransactions
	}
	return &block, nil
}
