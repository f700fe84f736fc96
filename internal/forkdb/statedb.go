package forkdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// Compile-time reminder that DB must keep satisfying vm.StateDB; checked in
// internal/evmi where the *vm.EVM is actually constructed, to avoid an
// import cycle back into core/vm from this package.

func (db *DB) undo(fn func()) {
	db.journal = append(db.journal, fn)
}

func (db *DB) CreateAccount(addr common.Address) {
	db.mu.Lock()
	defer db.mu.Unlock()
	prev := db.acc(addr)
	old := db.cloneAccount(prev)
	db.overlay[addr] = emptyAccount()
	db.overlay[addr].exists = true
	db.undo(func() { db.overlay[addr] = old })
}

func (db *DB) CreateContract(addr common.Address) {
	// A freshly created contract starts with empty storage: an address with
	// no storage override yet is switched to Full mode so remote slots are
	// never read for it. SelfDestruct6780 also relies on this mark to
	// recognise a contract created in this session (EIP-6780).
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.storageMode[addr] == modeNone {
		prevMode := db.storageMode[addr]
		db.storageMode[addr] = modeFull
		db.storageOverlay[addr] = make(map[common.Hash]common.Hash)
		db.undo(func() { db.storageMode[addr] = prevMode })
	}
}

func (db *DB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.acc(addr)
	old := new(uint256.Int).Set(a.balance)
	next := new(uint256.Int).Sub(a.balance, amount)
	db.setBalance(addr, next)
	db.undo(func() { db.setBalance(addr, old) })
}

func (db *DB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.acc(addr)
	old := new(uint256.Int).Set(a.balance)
	next := new(uint256.Int).Add(a.balance, amount)
	db.setBalance(addr, next)
	db.undo(func() { db.setBalance(addr, old) })
}

// setBalance writes through the overlay without journaling; callers journal
// the inverse themselves so SetBalance (used by overrides) can share it.
func (db *DB) setBalance(addr common.Address, v *uint256.Int) {
	a := db.acc(addr)
	clone := db.cloneAccount(a)
	clone.balance = v
	clone.exists = true
	db.overlay[addr] = clone
}

func (db *DB) GetBalance(addr common.Address) *uint256.Int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return new(uint256.Int).Set(db.acc(addr).balance)
}

func (db *DB) GetNonce(addr common.Address) uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.acc(addr).nonce
}

func (db *DB) SetNonce(addr common.Address, nonce uint64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.acc(addr)
	old := a.nonce
	clone := db.cloneAccount(a)
	clone.nonce = nonce
	clone.exists = true
	db.overlay[addr] = clone
	db.undo(func() {
		a2 := db.cloneAccount(db.acc(addr))
		a2.nonce = old
		db.overlay[addr] = a2
	})
}

func (db *DB) GetCodeHash(addr common.Address) common.Hash {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.acc(addr)
	if !a.exists {
		return common.Hash{}
	}
	if len(a.code) == 0 {
		return types.EmptyCodeHash
	}
	return a.codeHash
}

func (db *DB) GetCode(addr common.Address) []byte {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.acc(addr).code
}

func (db *DB) SetCode(addr common.Address, code []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.acc(addr)
	old := a.code
	oldHash := a.codeHash
	clone := db.cloneAccount(a)
	clone.code = code
	clone.codeHash = codeHashOf(code)
	clone.exists = true
	db.overlay[addr] = clone
	db.undo(func() {
		a2 := db.cloneAccount(db.acc(addr))
		a2.code = old
		a2.codeHash = oldHash
		db.overlay[addr] = a2
	})
}

func (db *DB) GetCodeSize(addr common.Address) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.acc(addr).code)
}

func (db *DB) AddRefund(gas uint64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	old := db.refund
	db.refund += gas
	db.undo(func() { db.refund = old })
}

func (db *DB) SubRefund(gas uint64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	old := db.refund
	if gas > db.refund {
		panic("forkdb: refund counter below zero")
	}
	db.refund -= gas
	db.undo(func() { db.refund = old })
}

func (db *DB) GetRefund() uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.refund
}

func (db *DB) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.storageValueLocked(addr, key, true)
}

func (db *DB) GetState(addr common.Address, key common.Hash) common.Hash {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.storageValueLocked(addr, key, false)
}

// storageValueLocked resolves a storage slot honoring overlay writes unless
// ignoreOverlay asks for the pre-tx ("committed") value, matching
// GetCommittedState's contract.
func (db *DB) storageValueLocked(addr common.Address, key common.Hash, ignoreOverlay bool) common.Hash {
	if !ignoreOverlay {
		if vals, ok := db.storageOverlay[addr]; ok {
			if v, ok2 := vals[key]; ok2 {
				return v
			}
		}
	}
	if db.storageMode[addr] == modeFull {
		return common.Hash{}
	}
	return db.fetchStorage(addr, key)
}

func (db *DB) SetState(addr common.Address, key, value common.Hash) common.Hash {
	db.mu.Lock()
	defer db.mu.Unlock()
	old := db.storageValueLocked(addr, key, false)
	if db.storageOverlay[addr] == nil {
		db.storageOverlay[addr] = make(map[common.Hash]common.Hash)
	}
	if db.storageMode[addr] == modeNone {
		db.storageMode[addr] = modeDiff
	}
	db.storageOverlay[addr][key] = value
	db.undo(func() { db.storageOverlay[addr][key] = old })
	return old
}

func (db *DB) GetStorageRoot(common.Address) common.Hash {
	// A forked session never computes a trie root; callers only use this for
	// EIP-7610-era empty-storage checks, which GetState/Exist already cover.
	return types.EmptyRootHash
}

func (db *DB) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	db.mu.Lock()
	defer db.mu.Unlock()
	if m, ok := db.transient[addr]; ok {
		return m[key]
	}
	return common.Hash{}
}

func (db *DB) SetTransientState(addr common.Address, key, value common.Hash) {
	db.mu.Lock()
	defer db.mu.Unlock()
	old := common.Hash{}
	if m, ok := db.transient[addr]; ok {
		old = m[key]
	} else {
		db.transient[addr] = make(map[common.Hash]common.Hash)
	}
	db.transient[addr][key] = value
	db.undo(func() { db.transient[addr][key] = old })
}

func (db *DB) SelfDestruct(addr common.Address) uint256.Int {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.acc(addr)
	bal := *a.balance
	wasDestructed := db.destructed[addr]
	db.setBalance(addr, new(uint256.Int))
	db.destructed[addr] = true
	db.undo(func() {
		db.destructed[addr] = wasDestructed
		db.setBalance(addr, &bal)
	})
	return bal
}

func (db *DB) HasSelfDestructed(addr common.Address) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.destructed[addr]
}

func (db *DB) SelfDestruct6780(addr common.Address) (uint256.Int, bool) {
	db.mu.Lock()
	remoteExists := db.remoteSet[addr] && db.remote[addr].exists
	isNew := db.storageMode[addr] == modeFull && !remoteExists
	db.mu.Unlock()
	if !isNew {
		return uint256.Int{}, false
	}
	bal := db.SelfDestruct(addr)
	return bal, true
}

func (db *DB) Exist(addr common.Address) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.destructed[addr] {
		return true
	}
	return db.acc(addr).exists
}

func (db *DB) Empty(addr common.Address) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.acc(addr)
	return a.balance.IsZero() && a.nonce == 0 && len(a.code) == 0
}

func (db *DB) AddressInAccessList(addr common.Address) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.accessAddrs[addr]
}

func (db *DB) SlotInAccessList(addr common.Address, slot common.Hash) (bool, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	addrOK := db.accessAddrs[addr]
	slotOK := db.accessSlots[addr] != nil && db.accessSlots[addr][slot]
	return addrOK, slotOK
}

func (db *DB) AddAddressToAccessList(addr common.Address) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.accessAddrs[addr] {
		return
	}
	db.accessAddrs[addr] = true
	db.undo(func() { delete(db.accessAddrs, addr) })
}

func (db *DB) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.accessSlots[addr] != nil && db.accessSlots[addr][slot] {
		return
	}
	addrWasNew := !db.accessAddrs[addr]
	db.accessAddrs[addr] = true
	if db.accessSlots[addr] == nil {
		db.accessSlots[addr] = make(map[common.Hash]bool)
	}
	db.accessSlots[addr][slot] = true
	db.undo(func() {
		delete(db.accessSlots[addr], slot)
		if addrWasNew {
			delete(db.accessAddrs, addr)
		}
	})
}

func (db *DB) Prepare(rules params.Rules, sender, coinbase common.Address, dst *common.Address, precompiles []common.Address, txAccesses types.AccessList) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.accessAddrs[sender] = true
	if rules.IsBerlin {
		db.accessAddrs[coinbase] = true
		for _, p := range precompiles {
			db.accessAddrs[p] = true
		}
		if dst != nil {
			db.accessAddrs[*dst] = true
		}
		for _, entry := range txAccesses {
			db.accessAddrs[entry.Address] = true
			if db.accessSlots[entry.Address] == nil {
				db.accessSlots[entry.Address] = make(map[common.Hash]bool)
			}
			for _, key := range entry.StorageKeys {
				db.accessSlots[entry.Address][key] = true
			}
		}
	}
}

func (db *DB) RevertToSnapshot(id int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := len(db.journal) - 1; i >= id; i-- {
		db.journal[i]()
	}
	db.journal = db.journal[:id]
}

func (db *DB) Snapshot() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.journal)
}

func (db *DB) AddLog(log *types.Log) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.logs = append(db.logs, log)
	db.undo(func() { db.logs = db.logs[:len(db.logs)-1] })
}

func (db *DB) AddPreimage(common.Hash, []byte) {
	// Preimages only matter for archive/debug_ tracing, never consulted by
	// simulation responses.
}

// Logs returns every log emitted since construction, in emission order.
func (db *DB) Logs() []*types.Log {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]*types.Log(nil), db.logs...)
}

func codeHashOf(code []byte) common.Hash {
	if len(code) == 0 {
		return types.EmptyCodeHash
	}
	return crypto.Keccak256Hash(code)
}
