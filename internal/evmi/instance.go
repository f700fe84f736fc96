// Package evmi wraps go-ethereum's interpreter (a fresh *vm.EVM per call)
// and a forkdb.DB behind the call_raw / call_raw_committing / set_block
// operations SPEC_FULL.md §4.2 names; override_account is reached through
// DB() and forkdb.ApplyOverrides. It is the Go restatement of
// core/tx_executor.go's TxExecutor/vmExecutorAdapter split: that file hides
// a build-tag-selected backend behind a small interface so the caller never
// branches on engine; Instance plays the same role for the single backend
// this service needs (go-ethereum's native interpreter).
package evmi

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"

	"github.com/EnsoFinance/temper/internal/apperror"
	"github.com/EnsoFinance/temper/internal/forkdb"
)

// Config pins the instance to a chain and a starting block.
type Config struct {
	ChainID     uint64
	ChainConfig *params.ChainConfig
	BlockNumber uint64
	Timestamp   uint64
	Coinbase    common.Address
	GasLimit    uint64
	BaseFee     *big.Int
	Identifier  *SourceIdentifier // optional; nil disables explorer-backed trace decoding
}

// Instance owns one forkdb.DB and constructs a fresh *vm.EVM per call,
// matching go-ethereum's own contract that an EVM is single-use and not
// thread safe: the forkdb.DB is what actually persists across calls inside
// a stateful session, the *vm.EVM wrapping it is disposable.
type Instance struct {
	db          *forkdb.DB
	chainConfig *params.ChainConfig
	blockNumber uint64
	timestamp   uint64
	coinbase    common.Address
	gasLimit    uint64
	baseFee     *big.Int
	chainID     uint64
	identifier  *SourceIdentifier
}

// New constructs an Instance over db using cfg as the initial block context.
func New(db *forkdb.DB, cfg Config) *Instance {
	return &Instance{
		db:          db,
		chainConfig: cfg.ChainConfig,
		blockNumber: cfg.BlockNumber,
		timestamp:   cfg.Timestamp,
		coinbase:    cfg.Coinbase,
		gasLimit:    cfg.GasLimit,
		baseFee:     cfg.BaseFee,
		chainID:     cfg.ChainID,
		identifier:  cfg.Identifier,
	}
}

// Identifier returns the optional explorer-backed source identifier
// configured for this instance, or nil if none was supplied.
func (i *Instance) Identifier() *SourceIdentifier { return i.identifier }

// ChainID returns the chain id the instance was constructed for.
func (i *Instance) ChainID() uint64 { return i.chainID }

// BlockNumber returns the block number the next call will execute against.
func (i *Instance) BlockNumber() uint64 { return i.blockNumber }

// Timestamp returns the block timestamp the next call will execute against.
func (i *Instance) Timestamp() uint64 { return i.timestamp }

// SetBlock advances the pinned block number and repins the forking database
// to read remote state as of that block (SPEC_FULL.md §4.4, invariant I3:
// block numbers are monotonically non-decreasing within one session).
func (i *Instance) SetBlock(number uint64) error {
	if number < i.blockNumber {
		return apperror.New(apperror.CodeInvalidBlockNumbers, blockRegressionError(i.blockNumber, number))
	}
	i.blockNumber = number
	i.db.SetBlockNumber(new(big.Int).SetUint64(number))
	return nil
}

// SetTimestamp sets the block timestamp the next call executes against.
func (i *Instance) SetTimestamp(ts uint64) {
	i.timestamp = ts
}

// DB exposes the underlying forking database so callers can apply state
// overrides (internal/forkdb.ApplyOverrides) before a call.
func (i *Instance) DB() *forkdb.DB { return i.db }

func (i *Instance) blockContext() vm.BlockContext {
	return vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash:     i.db.BlockHash,
		Coinbase:    i.coinbase,
		BlockNumber: new(big.Int).SetUint64(i.blockNumber),
		Time:        i.timestamp,
		Difficulty:  big.NewInt(0),
		GasLimit:    i.gasLimit,
		BaseFee:     i.baseFee,
	}
}

// CallParams describes one EVM call (SimulationRequest's call fields).
type CallParams struct {
	From     common.Address
	To       *common.Address
	Input    []byte
	Value    *uint256.Int
	GasLimit uint64
	GasPrice *big.Int
}

// CallResult is the raw outcome of one executed call, before it is shaped
// into the wire SimulationResponse.
type CallResult struct {
	ReturnData      []byte
	GasUsed         uint64
	Reverted        bool
	ExitReason      string
	ContractAddress *common.Address
	Logs            []*types.Log
	Trace           []Frame
}
