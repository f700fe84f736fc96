// Package forkurl resolves a numeric chain id to a default upstream
// JSON-RPC URL (SPEC_FULL.md §4.1), the Go restatement of the original
// service's chain_id_to_fork_url match arms.
package forkurl

import (
	"fmt"

	"github.com/EnsoFinance/temper/internal/apperror"
)

// defaults covers the common public networks SPEC_FULL.md §4.1 requires:
// Ethereum mainnet/goerli/sepolia, Polygon main/mumbai, Avalanche C-chain
// main/fuji, Fantom main/testnet, Gnosis, BSC main/testnet, Arbitrum
// One/goerli, Optimism main/goerli.
var defaults = map[uint64]string{
	1:        "https://eth.llamarpc.com",
	5:        "https://eth-goerli.g.alchemy.com/v2/demo",
	11155111: "https://eth-sepolia.g.alchemy.com/v2/demo",
	137:      "https://polygon-mainnet.g.alchemy.com/v2/demo",
	80001:    "https://polygon-mumbai.g.alchemy.com/v2/demo",
	43114:    "https://api.avax.network/ext/bc/C/rpc",
	43113:    "https://api.avax-test.network/ext/bc/C/rpc",
	250:      "https://rpcapi.fantom.network/",
	4002:     "https://rpc.testnet.fantom.network/",
	100:      "https://rpc.xdaichain.com/",
	56:       "https://bsc-dataseed.binance.org/",
	97:       "https://data-seed-prebsc-1-s1.binance.org:8545/",
	42161:    "https://arb1.arbitrum.io/rpc",
	421613:   "https://goerli-rollup.arbitrum.io/rpc",
	10:       "https://mainnet.optimism.io/",
	420:      "https://goerli.optimism.io/",
}

// Resolve returns the upstream JSON-RPC URL for chainID, or a
// CHAIN_ID_NOT_SUPPORTED rejection if there is no default entry. override, if
// non-empty, always wins unconditionally (SPEC_FULL.md §9): the chain id is
// then only used for the post-construction consistency check in
// internal/simulation.Run.
func Resolve(chainID uint64, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	url, ok := defaults[chainID]
	if !ok {
		return "", apperror.New(apperror.CodeChainIDNotSupported, fmt.Errorf("no default fork url for chain id %d", chainID))
	}
	return url, nil
}
