// Package bundle implements the Bundle Sequencer (SPEC_FULL.md §4.4):
// iterate an ordered list of simulation requests against one EVM instance,
// enforcing chain-id homogeneity (I2) and monotonic block progression (I3),
// advancing block number and timestamp as each item requires.
//
// The Rust original duplicates this loop once for ephemeral bundles and
// once for stateful sessions (simulation.rs's simulate_bundle and
// simulate_stateful); SPEC_FULL.md §4.4 invites deduplicating it, since the
// only difference between the two call sites is whether the EVM has already
// advanced past the bundle's first block.
package bundle

import (
	"fmt"

	"github.com/EnsoFinance/temper/internal/apperror"
	"github.com/EnsoFinance/temper/internal/evmi"
	"github.com/EnsoFinance/temper/internal/simulation"
)

const interBlockSeconds = 12

// Run executes reqs in order against inst, committing every item, and
// returns one Response per item. An empty reqs is rejected by the caller
// (the HTTP layer enforces "non-empty" per the wire contract); Run itself
// just iterates whatever it is given.
func Run(inst *evmi.Instance, reqs []simulation.Request) ([]*simulation.Response, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	firstChainID := reqs[0].ChainID
	firstBlock := blockNumberOf(reqs[0], inst.BlockNumber())

	responses := make([]*simulation.Response, 0, len(reqs))
	for idx, req := range reqs {
		if req.ChainID != firstChainID {
			return nil, apperror.New(apperror.CodeMultipleChainIDs, fmt.Errorf("item %d has chain id %d, bundle started with %d", idx, req.ChainID, firstChainID))
		}

		target := blockNumberOf(req, firstBlock)
		if target != firstBlock {
			if target < firstBlock || target < inst.BlockNumber() {
				return nil, apperror.New(apperror.CodeInvalidBlockNumbers, fmt.Errorf("item %d block %d is below the bundle's first block %d or the evm's current block %d", idx, target, firstBlock, inst.BlockNumber()))
			}
		}

		// A bundle resubmitted against an already-advanced session must not
		// re-advance: only treat target as a new block when it differs from
		// both the bundle's first block and the evm's current block.
		if target != firstBlock && target != inst.BlockNumber() {
			if err := inst.SetBlock(target); err != nil {
				return nil, err
			}
			inst.SetTimestamp(inst.Timestamp() + interBlockSeconds)
		}

		resp, err := simulation.Run(inst, req, true)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func blockNumberOf(req simulation.Request, fallback uint64) uint64 {
	if req.BlockNumber != nil {
		return *req.BlockNumber
	}
	return fallback
}
