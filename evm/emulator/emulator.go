package emulator

import (
	"fmt"
	"math/big"
	"time"

	gethCommon "github.com/ethereum/go-ethereum/common"
	gethCore "github.com/ethereum/go-ethereum/core"
	gethVM "github.com/ethereum/go-ethereum/core/vm"

	"github.com/onflow/evm-bench/evm/types"
)

// Emulator runs historical transactions against the go-ethereum evm
type Emulator struct {
	config *Config
}

var _ types.Executor = &Emulator{}

// NewEmulator constructs a new EVM Emulator
func NewEmulator(opts ...Option) *Emulator {
	return &Emulator{
		config: NewConfig(opts...),
	}
}

// Config returns the config of the emulator
func (em *Emulator) Config() *Config {
	return em.config
}

// Execute runs the transaction once against the given view.
//
// Rejected transactions (bad fee fields, insufficient funds, gas pool
// exhausted) are reported as invalid, evm errors (revert, out of gas,
// invalid opcode) as failed. A panic inside the engine is recovered and
// reported as invalid.
func (em *Emulator) Execute(
	view types.StateView,
	ctx *types.BlockContext,
	tx *types.TransactionRecord,
) (out types.Outcome) {
	var start time.Time
	defer func() {
		if r := recover(); r != nil {
			var elapsed time.Duration
			if !start.IsZero() {
				elapsed = time.Since(start)
			}
			out = types.NewInvalidOutcome(fmt.Errorf("evm panic: %v", r), elapsed)
		}
	}()

	proc := em.newProcedure(view, ctx, tx)
	msg := transactionMessage(tx)

	if em.config.FundSenders {
		proc.fund(msg)
	}

	start = time.Now()
	res, err := proc.run(msg)
	elapsed := time.Since(start)

	if err != nil {
		return types.NewInvalidOutcome(err, elapsed)
	}

	out = types.Outcome{
		Status:      types.StatusSuccessful,
		GasConsumed: res.UsedGas,
		Elapsed:     elapsed,
	}
	if res.Failed() {
		out.Status = types.StatusFailed
		out.Err = res.Err
	}
	return out
}

func (em *Emulator) newProcedure(
	view types.StateView,
	ctx *types.BlockContext,
	tx *types.TransactionRecord,
) *procedure {
	execState := view.StateDB()
	blockCtx := newBlockContext(ctx)
	gasPrice := bigOrZero(tx.GasPrice)
	txCtx := gethVM.TxContext{
		Origin:   tx.From,
		GasPrice: new(big.Int).Set(gasPrice),
	}
	return &procedure{
		evm: gethVM.NewEVM(
			blockCtx,
			txCtx,
			execState,
			em.config.ChainConfig,
			em.config.EVMConfig,
		),
		state:    execState,
		gasLimit: ctx.GasLimit,
	}
}

type procedure struct {
	evm      *gethVM.EVM
	state    gethVM.StateDB
	gasLimit uint64
}

// fund credits the sender with gas*price+value on top of its current balance
func (proc *procedure) fund(msg *gethCore.Message) {
	amount := new(big.Int).SetUint64(msg.GasLimit)
	amount.Mul(amount, msg.GasFeeCap)
	amount.Add(amount, msg.Value)
	if amount.Sign() == 0 {
		return
	}
	if !proc.state.Exist(msg.From) {
		proc.state.CreateAccount(msg.From)
	}
	proc.state.AddBalance(msg.From, amount)
}

func (proc *procedure) run(msg *gethCore.Message) (*gethCore.ExecutionResult, error) {
	// the pool is sized to the block gas limit, blocks missing the field
	// get a pool that fits the transaction
	poolSize := proc.gasLimit
	if poolSize == 0 {
		poolSize = msg.GasLimit
	}
	gasPool := new(gethCore.GasPool).AddGas(poolSize)
	return gethCore.NewStateTransition(
		proc.evm,
		msg,
		gasPool,
	).TransitionDb()
}

func newBlockContext(ctx *types.BlockContext) gethVM.BlockContext {
	return gethVM.BlockContext{
		CanTransfer: gethCore.CanTransfer,
		Transfer:    gethCore.Transfer,
		// historical hashes are not available
		GetHash: func(n uint64) gethCommon.Hash {
			return gethCommon.Hash{}
		},
		Coinbase:    ctx.Coinbase,
		GasLimit:    ctx.GasLimit,
		BlockNumber: ctx.BigNumber(),
		Time:        ctx.Timestamp,
		Difficulty:  new(big.Int).Set(bigOrZero(ctx.Difficulty)),
		BaseFee:     new(big.Int).Set(bigOrZero(ctx.BaseFee)),
		Random:      ctx.Random,
	}
}

// transactionMessage builds the message for a historical transaction.
// Nonces and account kinds are unknown in an empty state so account
// checks are skipped. The recorded gas price is used as price, fee cap
// and tip cap.
func transactionMessage(tx *types.TransactionRecord) *gethCore.Message {
	gasPrice := bigOrZero(tx.GasPrice)
	return &gethCore.Message{
		From:              tx.From,
		To:                tx.To,
		Value:             new(big.Int).Set(bigOrZero(tx.Value)),
		Data:              tx.Data,
		GasLimit:          tx.GasLimit,
		GasPrice:          new(big.Int).Set(gasPrice),
		GasFeeCap:         new(big.Int).Set(gasPrice),
		GasTipCap:         new(big.Int).Set(gasPrice),
		SkipAccountChecks: true,
	}
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
