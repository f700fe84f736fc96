package simulation

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/EnsoFinance/temper/internal/apperror"
	"github.com/EnsoFinance/temper/internal/evmi"
)

// replayBlockPrefix implements the transactionBlockIndex supplement
// (SPEC_FULL.md §3/§9(d)): fetch the named block, replay every real
// transaction up to (but not including) index in committing mode, each
// converted to a Request using its recovered sender and the block's own
// chain id and block number.
func replayBlockPrefix(inst *evmi.Instance, blockNumber, index uint64) error {
	client := inst.DB().Client()
	if client == nil {
		return apperror.Unhandled(fmt.Errorf("transactionBlockIndex requires a live fork backend"))
	}

	block, err := client.BlockByNumber(context.Background(), new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return apperror.Unhandled(fmt.Errorf("fetch block %d: %w", blockNumber, err))
	}

	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(inst.ChainID()))
	txs := block.Transactions()

	limit := index
	if limit > uint64(len(txs)) {
		limit = uint64(len(txs))
	}

	for idx := uint64(0); idx < limit; idx++ {
		tx := txs[idx]
		sender, err := types.Sender(signer, tx)
		if err != nil {
			continue // unrecoverable sender: skip rather than fail the whole replay
		}

		req := Request{
			ChainID:     inst.ChainID(),
			From:        sender.Hex(),
			GasLimit:    tx.Gas(),
			BlockNumber: &blockNumber,
		}
		if to := tx.To(); to != nil {
			hexTo := to.Hex()
			req.To = &hexTo
		}
		if data := tx.Data(); len(data) > 0 {
			encoded := hexutil.Encode(data)
			req.Data = &encoded
		}
		if tx.Value() != nil && tx.Value().Sign() > 0 {
			valueHex := hexutil.EncodeBig(tx.Value())
			req.Value = &valueHex
		}

		if _, err := Run(inst, req, true); err != nil {
			continue // the real chain tolerated this tx in its original context; a replay mismatch shouldn't abort the prefix
		}
	}
	return nil
}
