package classifier

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/onflow/evm-bench/evm/types"
)

// Policy assigns a scheduling class to a transaction.
// Implementations must be safe for concurrent use and must not fail.
type Policy interface {
	Classify(tx *types.TransactionRecord) types.ClassLabel
}

// PolicyFunc is an adapter to use ordinary functions as a Policy
type PolicyFunc func(tx *types.TransactionRecord) types.ClassLabel

// Classify calls f(tx)
func (f PolicyFunc) Classify(tx *types.TransactionRecord) types.ClassLabel {
	return f(tx)
}

// SelectorLength is the length of a function selector in hex characters
const SelectorLength = 8

// DefaultTrivialInputLength is the call data length, in hex characters, below
// which a call is considered trivial
const DefaultTrivialInputLength = 20

// DefaultSelectors are the ERC-20 functions treated as deterministic
var DefaultSelectors = []string{
	"a9059cbb", // transfer(address,uint256)
	"095ea7b3", // approve(address,uint256)
	"23b872dd", // transferFrom(address,address,uint256)
	"70a08231", // balanceOf(address)
	"18160ddd", // totalSupply()
}

// SelectorPolicy classifies transactions by the shape of their call data.
//
// A transaction is deterministic when it carries no call data, when the call
// data is shorter than the trivial length, or when it starts with one of the
// known selectors (whatever follows). Everything else, contract creations
// included, is non deterministic. Only the raw input is inspected.
type SelectorPolicy struct {
	selectors     map[string]struct{}
	trivialLength int
}

var _ Policy = (*SelectorPolicy)(nil)

// Option configures a SelectorPolicy
type Option func(*SelectorPolicy)

// WithSelectors replaces the set of deterministic selectors.
// Selectors are 8 hex characters, with or without 0x prefix.
func WithSelectors(selectors []string) Option {
	return func(p *SelectorPolicy) {
		p.selectors = make(map[string]struct{}, len(selectors))
		for _, s := range selectors {
			p.selectors[normalize(s)] = struct{}{}
		}
	}
}

// WithTrivialInputLength sets the call data length, in hex characters,
// below which a call is deterministic
func WithTrivialInputLength(length int) Option {
	return func(p *SelectorPolicy) {
		p.trivialLength = length
	}
}

// NewSelectorPolicy returns the default classification policy
func NewSelectorPolicy(opts ...Option) *SelectorPolicy {
	p := &SelectorPolicy{
		trivialLength: DefaultTrivialInputLength,
	}
	WithSelectors(DefaultSelectors)(p)
	for _, apply := range opts {
		apply(p)
	}
	return p
}

// Classify implements Policy
func (p *SelectorPolicy) Classify(tx *types.TransactionRecord) types.ClassLabel {
	input := normalize(tx.Input)

	if len(input) == 0 {
		return types.Deterministic
	}

	if len(input) < p.trivialLength {
		return types.Deterministic
	}

	if len(input) >= SelectorLength {
		if _, ok := p.selectors[input[:SelectorLength]]; ok {
			return types.Deterministic
		}
	}

	// contract creations and calls to anything else
	return types.NonDeterministic
}

// Selectors returns the configured selectors
func (p *SelectorPolicy) Selectors() []string {
	selectors := make([]string, 0, len(p.selectors))
	for s := range p.selectors {
		selectors = append(selectors, s)
	}
	return selectors
}

// ParseSelectors validates selectors given as hex strings
func ParseSelectors(values []string) ([]string, error) {
	selectors := make([]string, 0, len(values))
	for _, v := range values {
		s := normalize(v)
		if len(s) != SelectorLength {
			return nil, fmt.Errorf("invalid selector %q: expected %d hex characters", v, SelectorLength)
		}
		if _, err := hexutil.Decode("0x" + s); err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", v, err)
		}
		selectors = append(selectors, s)
	}
	return selectors, nil
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return strings.ToLower(s)
}
