package evmblock

import (
	"math/big"
	"strings"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethMath "github.com/ethereum/go-ethereum/common/math"
)

// HexString is a hex encoded field of a block dump.
//
// Only JSON strings are kept, any other JSON value (null, numbers, objects)
// decodes to the empty string and is treated as absent.
type HexString string

// UnmarshalJSON implements json.Unmarshaler
func (h *HexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*h = ""
		return nil
	}
	*h = HexString(s)
	return nil
}

// IsEmpty returns true if the field is absent or carries no digits
func (h HexString) IsEmpty() bool {
	return h.digits() == ""
}

func (h HexString) digits() string {
	s := strings.TrimSpace(string(h))
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return s
}

// Uint64 decodes the field as a quantity, the 0x prefix is optional
func (h HexString) Uint64() (uint64, bool) {
	d := h.digits()
	if d == "" {
		return 0, false
	}
	return gethMath.ParseUint64("0x" + d)
}

// Uint64Or decodes the field as a quantity, falling back to def
func (h HexString) Uint64Or(def uint64) uint64 {
	v, ok := h.Uint64()
	if !ok {
		return def
	}
	return v
}

// Big decodes the field as a 256 bit quantity
func (h HexString) Big() (*big.Int, bool) {
	d := h.digits()
	if d == "" {
		return nil, false
	}
	return gethMath.ParseBig256("0x" + d)
}

// BigOrZero decodes the field as a 256 bit quantity, falling back to zero
func (h HexString) BigOrZero() *big.Int {
	v, ok := h.Big()
	if !ok {
		return new(big.Int)
	}
	return v
}

// Address decodes the field as a 20 byte address
func (h HexString) Address() (gethCommon.Address, bool) {
	s := strings.TrimSpace(string(h))
	if !gethCommon.IsHexAddress(s) {
		return gethCommon.Address{}, false
	}
	return gethCommon.HexToAddress(s), true
}

// Hash decodes the field as a 32 byte hash
func (h HexString) Hash() (gethCommon.Hash, bool) {
	d := h.digits()
	if len(d) != 2*gethCommon.HashLength {
		return gethCommon.Hash{}, false
	}
	b, err := hexutil.Decode("0x" + d)
	if err != nil {
		return gethCommon.Hash{}, false
	}
	return gethCommon.BytesToHash(b), true
}

// Bytes decodes the field as raw bytes, an absent or malformed field gives no bytes
func (h HexString) Bytes() []byte {
	d := h.digits()
	if d == "" {
		return nil
	}
	b, err := hexutil.Decode("0x" + d)
	if err != nil {
		return nil
	}
	return b
}
