package forkdb

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// fetchBasic returns the cached remote account for addr, reading it from the
// chain on first access. Callers must hold db.mu.
func (db *DB) fetchBasic(addr common.Address) *account {
	if a, ok := db.remote[addr]; ok {
		return db.cloneAccount(a)
	}
	a := db.readBasicFromChain(addr)
	db.remote[addr] = db.cloneAccount(a)
	db.remoteSet[addr] = true
	return a
}

// readBasicFromChain performs the actual RPC round trip, independent of the
// cache so Prefetch can call it without racing on the map.
func (db *DB) readBasicFromChain(addr common.Address) *account {
	a := emptyAccount()
	if db.client == nil {
		return a
	}
	ctx := context.Background()
	if bal, err := db.client.BalanceAt(ctx, addr, db.blockNumber); err == nil && bal != nil {
		if u, overflow := a.balance.SetFromBig(bal); !overflow {
			a.balance = u
		}
	}
	if nonce, err := db.client.NonceAt(ctx, addr, db.blockNumber); err == nil {
		a.nonce = nonce
	}
	if code, err := db.client.CodeAt(ctx, addr, db.blockNumber); err == nil && len(code) > 0 {
		a.code = code
		a.codeHash = crypto.Keccak256Hash(code)
	}
	a.exists = !a.balance.IsZero() || a.nonce != 0 || len(a.code) > 0
	return a
}

// fetchStorage returns the cached remote value for (addr, slot), reading it
// from the chain on first access. Callers must hold db.mu.
func (db *DB) fetchStorage(addr common.Address, slot common.Hash) common.Hash {
	if cached, ok := db.remoteStorage[addr]; ok {
		if v, ok2 := cached[slot]; ok2 {
			return v
		}
	}
	value := db.readStorageFromChain(addr, slot)
	if db.remoteStorage[addr] == nil {
		db.remoteStorage[addr] = make(map[common.Hash]common.Hash)
	}
	db.remoteStorage[addr][slot] = value
	return value
}

func (db *DB) readStorageFromChain(addr common.Address, slot common.Hash) common.Hash {
	if db.client == nil {
		return common.Hash{}
	}
	v, err := db.client.StorageAt(context.Background(), addr, slot, db.blockNumber)
	if err != nil {
		return common.Hash{}
	}
	return common.BytesToHash(v)
}

// BatchKey identifies an (address, storage slot) pair to warm into the
// cache ahead of execution. A zero Slot primes only the account's basic
// info. Adapted from revm_bridge/batch_prefetch.go's BatchKey, replacing its
// cgo call with concurrent RPC fan-out since there is no FFI boundary here.
type BatchKey struct {
	Address common.Address
	Slot    common.Hash
}

type fetchResult struct {
	key     BatchKey
	acc     *account
	storage common.Hash
}

// Prefetch warms the cache for every key concurrently. Best effort: a failed
// individual fetch just means the first real read pays the round trip.
func (db *DB) Prefetch(keys []BatchKey) {
	if len(keys) == 0 {
		return
	}
	results := make([]fetchResult, len(keys))
	var wg sync.WaitGroup
	for i, k := range keys {
		wg.Add(1)
		go func(i int, k BatchKey) {
			defer wg.Done()
			if k.Slot == (common.Hash{}) {
				results[i] = fetchResult{key: k, acc: db.readBasicFromChain(k.Address)}
				return
			}
			results[i] = fetchResult{key: k, storage: db.readStorageFromChain(k.Address, k.Slot)}
		}(i, k)
	}
	wg.Wait()

	db.mu.Lock()
	defer db.mu.Unlock()
	for _, r := range results {
		if r.acc != nil {
			if !db.remoteSet[r.key.Address] {
				db.remote[r.key.Address] = db.cloneAccount(r.acc)
				db.remoteSet[r.key.Address] = true
			}
			continue
		}
		if db.remoteStorage[r.key.Address] == nil {
			db.remoteStorage[r.key.Address] = make(map[common.Hash]common.Hash)
		}
		if _, ok := db.remoteStorage[r.key.Address][r.key.Slot]; !ok {
			db.remoteStorage[r.key.Address][r.key.Slot] = r.storage
		}
	}
}
