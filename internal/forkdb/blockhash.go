package forkdb

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BlockHash resolves the canonical hash of block number, caching results so
// the BLOCKHASH opcode (wired as vm.BlockContext.GetHash) never re-dials
// for a number it already resolved this session.
func (db *DB) BlockHash(number uint64) common.Hash {
	db.mu.Lock()
	defer db.mu.Unlock()
	if h, ok := db.blockHashes[number]; ok {
		return h
	}
	var h common.Hash
	if db.client != nil {
		if header, err := db.client.HeaderByNumber(context.Background(), new(big.Int).SetUint64(number)); err == nil && header != nil {
			h = header.Hash()
		}
	}
	db.blockHashes[number] = h
	return h
}
