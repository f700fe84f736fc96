package evmi

import (
	"errors"

	"github.com/ethereum/go-ethereum/core/vm"
)

// Exit reason strings mirror tracing/revm_reason.go's enum-plus-String()
// shape (a small closed set of named outcomes), but describe why an
// interpreter call ended rather than why a balance or nonce changed.
const (
	ExitStop         = "Stop"
	ExitReturn       = "Return"
	ExitSelfDestruct = "SelfDestruct"
	ExitRevert       = "Revert"
	ExitOutOfGas     = "OutOfGas"
	ExitError        = "Error"
)

// classifyExit turns the *vm.EVM error (or nil) and output length into the
// wire exit_reason string. Every go-ethereum interpreter error is a normal
// revert-shaped outcome, not a request failure (SPEC_FULL.md §4.2: call_raw
// "never fails on revert ... fails only on interpreter-level faults" —
// which in practice means no sentinel from core/vm/errors.go ever reaches
// the caller as a Go error here).
func classifyExit(err error, output []byte, selfDestructed bool) (reason string, success bool) {
	switch {
	case err == nil:
		if selfDestructed {
			return ExitSelfDestruct, true
		}
		if len(output) == 0 {
			return ExitStop, true
		}
		return ExitReturn, true
	case errors.Is(err, vm.ErrExecutionReverted):
		return ExitRevert, false
	case errors.Is(err, vm.ErrOutOfGas) || errors.Is(err, vm.ErrCodeStoreOutOfGas) || errors.Is(err, vm.ErrGasUintOverflow):
		return ExitOutOfGas, false
	default:
		return ExitError, false
	}
}
