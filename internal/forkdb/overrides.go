package forkdb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/EnsoFinance/temper/internal/apperror"
)

// Override captures one address's worth of pre-execution state override
// fields (SPEC_FULL.md §4.2). A nil field leaves that piece of state
// untouched. StateFull and StateDiff are mutually exclusive (invariant I4):
// Full replaces the account's entire storage, Diff patches individual slots
// on top of whatever the fork already has.
type Override struct {
	Balance *uint256.Int
	Nonce   *uint64
	Code    []byte

	StateFull map[common.Hash]common.Hash
	StateDiff map[common.Hash]common.Hash
}

// ApplyOverrides installs every override ahead of the call whose request
// carried it, in a stateless simulation and in every item of a bundle or
// session alike. Applying an override does not go
// through the undo journal: overrides are baseline state, not an EVM
// mutation that a later RevertToSnapshot should undo.
func ApplyOverrides(db *DB, overrides map[common.Address]Override) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for addr, ov := range overrides {
		if len(ov.StateFull) > 0 && len(ov.StateDiff) > 0 {
			return apperror.New(apperror.CodeOverrideError, fmt.Errorf("address %s sets both full and diff storage overrides", addr.Hex()))
		}

		if ov.Balance != nil || ov.Nonce != nil || ov.Code != nil {
			a := db.cloneAccount(db.acc(addr))
			if ov.Balance != nil {
				a.balance = new(uint256.Int).Set(ov.Balance)
			}
			if ov.Nonce != nil {
				a.nonce = *ov.Nonce
			}
			if ov.Code != nil {
				a.code = ov.Code
				a.codeHash = codeHashOf(ov.Code)
			}
			a.exists = true
			db.overlay[addr] = a
		}

		switch {
		case len(ov.StateFull) > 0:
			db.storageMode[addr] = modeFull
			db.storageOverlay[addr] = copyStorage(ov.StateFull)
		case len(ov.StateDiff) > 0:
			if db.storageMode[addr] == modeNone {
				db.storageMode[addr] = modeDiff
			}
			if db.storageOverlay[addr] == nil {
				db.storageOverlay[addr] = make(map[common.Hash]common.Hash)
			}
			for k, v := range ov.StateDiff {
				db.storageOverlay[addr][k] = v
			}
		}
	}
	return nil
}

func copyStorage(m map[common.Hash]common.Hash) map[common.Hash]common.Hash {
	out := make(map[common.Hash]common.Hash, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
