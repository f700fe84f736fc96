package evmi

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"

	"github.com/EnsoFinance/temper/internal/apperror"
)

// CallRaw executes params against the current state without persisting any
// resulting balance, nonce, storage or code changes (SPEC_FULL.md §4.2's
// call_raw). Overrides applied via DB().ApplyOverrides are visible to the
// call but are themselves left in place afterward. It never returns an
// error for a reverted or gas-exhausted execution — those are ordinary
// outcomes reflected in CallResult.ExitReason/Success.
func (i *Instance) CallRaw(params CallParams) (*CallResult, error) {
	return i.call(params, false)
}

// CallRawCommitting executes params and keeps whatever balance, nonce,
// storage and code changes it produced as part of the session's state going
// forward (call_raw_committing).
func (i *Instance) CallRawCommitting(params CallParams) (*CallResult, error) {
	return i.call(params, true)
}

func (i *Instance) call(p CallParams, commit bool) (*CallResult, error) {
	value := p.Value
	if value == nil {
		value = new(uint256.Int)
	}
	gasPrice := p.GasPrice
	if gasPrice == nil {
		gasPrice = big.NewInt(0)
	}

	// core/tx_executor.go's ApplyTransactionWithEVM path computes intrinsic
	// gas before ever building a message; a real chain charges it up front
	// rather than leaving it to the interpreter to notice. A creation whose
	// init code exceeds EIP-3860's cap (checked here, as state_transition.go
	// does; core.IntrinsicGas itself does not) or core.IntrinsicGas failing
	// outright (gas overflow) is a fault the call never could have run — that
	// never reaches the interpreter and fails the request (SPEC_FULL.md
	// §4.2/§7), not come back as a 200.
	//
	// A gas limit that simply can't cover intrinsic gas is different: §8's
	// underfunded-gas case expects the ordinary 200/OutOfGas shape (the
	// gas limit is still spent, just on nothing), so it is reported the same
	// way as running out of gas mid-execution rather than rejected.
	blockNum := new(big.Int).SetUint64(i.blockNumber)
	if p.To == nil && i.chainConfig.IsShanghai(blockNum, i.timestamp) && len(p.Input) > params.MaxInitCodeSize {
		return nil, apperror.ClassifyEVMError(fmt.Errorf("%w: code size %d limit %d", core.ErrMaxInitCodeSizeExceeded, len(p.Input), params.MaxInitCodeSize))
	}
	intrinsicGas, err := core.IntrinsicGas(
		p.Input,
		nil,
		p.To == nil,
		i.chainConfig.IsHomestead(blockNum),
		i.chainConfig.IsIstanbul(blockNum),
		i.chainConfig.IsShanghai(blockNum, i.timestamp),
	)
	if err != nil {
		return nil, apperror.ClassifyEVMError(err)
	}
	if p.GasLimit < intrinsicGas {
		return &CallResult{
			GasUsed:    p.GasLimit,
			Reverted:   true,
			ExitReason: ExitOutOfGas,
		}, nil
	}

	// Just like state_transition.go's ApplyMessage, intrinsic gas is spent
	// before the interpreter ever runs: only the remainder is available to
	// it. GasUsed below is still gasLimit-leftOver, so it comes out equal to
	// intrinsicGas+whatever the interpreter itself spent without any extra
	// bookkeeping.
	available := p.GasLimit - intrinsicGas

	tracer := newCallTracer()
	evm := vm.NewEVM(i.blockContext(), i.db, i.chainConfig, vm.Config{Tracer: tracer.Hooks()})
	evm.SetTxContext(vm.TxContext{Origin: p.From, GasPrice: gasPrice})

	logsBefore := len(i.db.Logs())
	snap := i.db.Snapshot()
	if !commit {
		defer func() { i.db.RevertToSnapshot(snap) }()
	}

	var (
		ret       []byte
		leftOver  uint64
		createdAt *common.Address
	)

	if p.To == nil {
		var contractAddr common.Address
		ret, contractAddr, leftOver, err = evm.Create(p.From, p.Input, available, value)
		createdAt = &contractAddr
	} else {
		ret, leftOver, err = evm.Call(p.From, *p.To, p.Input, available, value)
	}

	selfDestructed := i.db.HasSelfDestructed(p.From)
	exitReason, success := classifyExit(err, ret, selfDestructed)

	return &CallResult{
		ReturnData:      ret,
		GasUsed:         p.GasLimit - leftOver,
		Reverted:        !success,
		ExitReason:      exitReason,
		ContractAddress: createdAt,
		Logs:            i.db.Logs()[logsBefore:],
		Trace:           tracer.Linearize(),
	}, nil
}
